package opengl

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

type call struct {
	name string
	args []interface{}
}

// recorder is a Functions fake that logs every call and tracks the
// fixed-function state a real context would hold.
type recorder struct {
	calls        []call
	state        map[string]string
	next         uint32
	uniforms     map[string]int32
	failCompile  map[string]bool
	failLink     bool
	shaderSource map[uint32]string
}

func newRecorder() *recorder {
	return &recorder{
		state:        map[string]string{},
		uniforms:     map[string]int32{},
		failCompile:  map[string]bool{},
		shaderSource: map[uint32]string{},
	}
}

func (r *recorder) record(name string, args ...interface{}) {
	r.calls = append(r.calls, call{name: name, args: args})
}

func (r *recorder) set(key string, value ...interface{}) {
	r.state[key] = fmt.Sprint(value...)
}

func (r *recorder) gen() uint32 {
	r.next++
	return r.next
}

// named returns the arguments of every call to name, in order.
func (r *recorder) named(name string) [][]interface{} {
	var out [][]interface{}
	for _, c := range r.calls {
		if c.name == name {
			out = append(out, c.args)
		}
	}
	return out
}

func (r *recorder) mark() int { return len(r.calls) }

func (r *recorder) since(mark int) []call { return r.calls[mark:] }

func (r *recorder) snapshot() map[string]string {
	out := make(map[string]string, len(r.state))
	for k, v := range r.state {
		out[k] = v
	}
	return out
}

func (r *recorder) Init() error { r.record("Init"); return nil }

func (r *recorder) GetString(name uint32) string { return fmt.Sprintf("fake-%#x", name) }

func (r *recorder) Enable(c uint32) { r.record("Enable", c); r.set(fmt.Sprintf("cap:%#x", c), true) }
func (r *recorder) Disable(c uint32) { r.record("Disable", c); r.set(fmt.Sprintf("cap:%#x", c), false) }

func (r *recorder) Viewport(x, y, w, h int32) { r.record("Viewport", x, y, w, h) }
func (r *recorder) ClearColor(cr, g, b, a float32) { r.record("ClearColor", cr, g, b, a) }
func (r *recorder) ClearDepth(depth float64) { r.record("ClearDepth", depth) }
func (r *recorder) ClearStencil(s int32) { r.record("ClearStencil", s) }
func (r *recorder) Clear(mask uint32) { r.record("Clear", mask) }
func (r *recorder) PixelStorei(p uint32, v int32) { r.record("PixelStorei", p, v) }

func (r *recorder) GenTexture() uint32 { id := r.gen(); r.record("GenTexture", id); return id }
func (r *recorder) DeleteTexture(t uint32) { r.record("DeleteTexture", t) }
func (r *recorder) ActiveTexture(unit uint32) { r.record("ActiveTexture", unit) }
func (r *recorder) BindTexture(target, t uint32) { r.record("BindTexture", target, t) }
func (r *recorder) GenerateMipmap(target uint32) { r.record("GenerateMipmap", target) }
func (r *recorder) TexParameteri(t, p uint32, v int32) { r.record("TexParameteri", t, p, v) }
func (r *recorder) TexParameterf(t, p uint32, v float32) { r.record("TexParameterf", t, p, v) }

func (r *recorder) TexImage2D(target uint32, level, internal, w, h int32, format, xtype uint32, data []byte) {
	r.record("TexImage2D", level, internal, w, h, format, xtype, len(data))
}

func (r *recorder) TexSubImage2D(target uint32, level, x, y, w, h int32, format, xtype uint32, data []byte) {
	r.record("TexSubImage2D", level, x, y, w, h, format, xtype, append([]byte(nil), data...))
}

func (r *recorder) GenBuffer() uint32 { id := r.gen(); r.record("GenBuffer", id); return id }
func (r *recorder) DeleteBuffer(b uint32) { r.record("DeleteBuffer", b) }
func (r *recorder) BindBuffer(target, b uint32) { r.record("BindBuffer", target, b) }

func (r *recorder) BufferData(target uint32, size int, data []byte, usage uint32) {
	r.record("BufferData", target, size, len(data), usage)
}

func (r *recorder) BufferSubData(target uint32, offset int, data []byte) {
	r.record("BufferSubData", target, offset, append([]byte(nil), data...))
}

func (r *recorder) GenVertexArray() uint32 { id := r.gen(); r.record("GenVertexArray", id); return id }
func (r *recorder) DeleteVertexArray(v uint32) { r.record("DeleteVertexArray", v) }
func (r *recorder) BindVertexArray(v uint32) { r.record("BindVertexArray", v) }

func (r *recorder) EnableVertexAttribArray(i uint32) {
	r.record("EnableVertexAttribArray", i)
	r.set(fmt.Sprintf("attrib:%d", i), true)
}

func (r *recorder) DisableVertexAttribArray(i uint32) {
	r.record("DisableVertexAttribArray", i)
	r.set(fmt.Sprintf("attrib:%d", i), false)
}

func (r *recorder) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	r.record("VertexAttribPointer", index, size, xtype, normalized, stride, offset)
}

func (r *recorder) BlendFunc(src, dst uint32) { r.record("BlendFunc", src, dst); r.set("blend_func", src, dst) }
func (r *recorder) DepthFunc(fn uint32) { r.record("DepthFunc", fn); r.set("depth_func", fn) }
func (r *recorder) DepthMask(flag bool) { r.record("DepthMask", flag); r.set("depth_mask", flag) }
func (r *recorder) DepthRange(near, far float64) { r.record("DepthRange", near, far) }
func (r *recorder) CullFace(mode uint32) { r.record("CullFace", mode); r.set("cull_face", mode) }
func (r *recorder) FrontFace(mode uint32) { r.record("FrontFace", mode); r.set("front_face", mode) }
func (r *recorder) StencilMask(mask uint32) { r.record("StencilMask", mask); r.set("stencil_mask", mask) }

func (r *recorder) ColorMask(cr, g, b, a bool) {
	r.record("ColorMask", cr, g, b, a)
	r.set("color_mask", cr, g, b, a)
}

func (r *recorder) PolygonOffset(factor, units float32) { r.record("PolygonOffset", factor, units) }

func (r *recorder) StencilFunc(fn uint32, ref int32, mask uint32) {
	r.record("StencilFunc", fn, ref, mask)
	r.set("stencil_func", fn, ref, mask)
}

func (r *recorder) StencilOpSeparate(face, sfail, dpfail, dppass uint32) {
	r.record("StencilOpSeparate", face, sfail, dpfail, dppass)
	r.set(fmt.Sprintf("stencil_op:%#x", face), sfail, dpfail, dppass)
}

func (r *recorder) CreateShader(kind uint32) uint32 {
	id := r.gen()
	r.record("CreateShader", kind, id)
	return id
}

func (r *recorder) CompileShader(shader uint32, source string) (bool, string) {
	r.record("CompileShader", shader)
	r.shaderSource[shader] = source
	for name := range r.failCompile {
		if strings.Contains(source, name) {
			return false, "0:1: syntax error"
		}
	}
	return true, ""
}

func (r *recorder) DeleteShader(s uint32) { r.record("DeleteShader", s) }
func (r *recorder) CreateProgram() uint32 { id := r.gen(); r.record("CreateProgram", id); return id }
func (r *recorder) AttachShader(p, s uint32) { r.record("AttachShader", p, s) }
func (r *recorder) DeleteProgram(p uint32) { r.record("DeleteProgram", p) }
func (r *recorder) UseProgram(p uint32) { r.record("UseProgram", p); r.set("program", p) }

func (r *recorder) BindAttribLocation(p, index uint32, name string) {
	r.record("BindAttribLocation", p, index, name)
}

func (r *recorder) LinkProgram(p uint32) (bool, string) {
	r.record("LinkProgram", p)
	if r.failLink {
		return false, "link error"
	}
	return true, ""
}

func (r *recorder) GetUniformLocation(p uint32, name string) int32 {
	loc, ok := r.uniforms[name]
	if !ok {
		loc = int32(len(r.uniforms))
		r.uniforms[name] = loc
	}
	return loc
}

func (r *recorder) Uniform1i(loc int32, v int32) { r.record("Uniform1i", loc, v) }
func (r *recorder) Uniform1f(loc int32, v float32) { r.record("Uniform1f", loc, v) }
func (r *recorder) Uniform2fv(loc int32, v []float32) { r.record("Uniform2fv", loc, v) }
func (r *recorder) Uniform4fv(loc int32, v []float32) { r.record("Uniform4fv", loc, v) }
func (r *recorder) UniformMatrix4fv(loc int32, m []float32) { r.record("UniformMatrix4fv", loc, m) }

func (r *recorder) DrawArrays(mode uint32, first, count int32) {
	r.record("DrawArrays", mode, first, count)
}

func (r *recorder) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	r.record("DrawElements", mode, count, xtype, offset)
}

type fakeWindow struct {
	swaps    int
	interval int
	current  bool
}

func (w *fakeWindow) FramebufferSize() (int, int) { return 800, 600 }
func (w *fakeWindow) SwapBuffers() { w.swaps++ }
func (w *fakeWindow) MakeContextCurrent() { w.current = true }
func (w *fakeWindow) SetSwapInterval(i int) { w.interval = i }
func (w *fakeWindow) CreateWindowSurface(interface{}, unsafe.Pointer) (uintptr, error) {
	return 0, errors.New("no vulkan surface on a GL window")
}
func (w *fakeWindow) RequiredInstanceExtensions() []string { return nil }

// shaderFiles returns each stage's file name as its source text.
type shaderFiles struct{}

func (shaderFiles) GLSL(name string) (string, error) { return "#version 410\n// " + name, nil }
func (shaderFiles) SPIRV(name string) ([]uint32, error) { return nil, errors.New("no SPIR-V") }
