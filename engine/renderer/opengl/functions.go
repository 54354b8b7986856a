package opengl

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Functions is the slice of the GL 4.1 core API the device uses. Enum
// arguments are the go-gl constants.
type Functions interface {
	Init() error
	GetString(name uint32) string

	Enable(capability uint32)
	Disable(capability uint32)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float64)
	ClearStencil(s int32)
	Clear(mask uint32)
	PixelStorei(pname uint32, param int32)

	GenTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, data []byte)
	TexSubImage2D(target uint32, level, x, y, width, height int32, format, xtype uint32, data []byte)
	TexParameteri(target, pname uint32, param int32)
	TexParameterf(target, pname uint32, param float32)
	GenerateMipmap(target uint32)

	GenBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, size int, data []byte, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)

	GenVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)

	BlendFunc(src, dst uint32)
	DepthFunc(fn uint32)
	DepthMask(flag bool)
	DepthRange(near, far float64)
	ColorMask(r, g, b, a bool)
	CullFace(mode uint32)
	FrontFace(mode uint32)
	PolygonOffset(factor, units float32)
	StencilFunc(fn uint32, ref int32, mask uint32)
	StencilOpSeparate(face, sfail, dpfail, dppass uint32)
	StencilMask(mask uint32)

	CreateShader(kind uint32) uint32
	// CompileShader uploads source and compiles it, returning the info log on failure.
	CompileShader(shader uint32, source string) (bool, string)
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	BindAttribLocation(program, index uint32, name string)
	// LinkProgram links program, returning the info log on failure.
	LinkProgram(program uint32) (bool, string)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	Uniform2fv(location int32, v []float32)
	Uniform4fv(location int32, v []float32)
	UniformMatrix4fv(location int32, m []float32)

	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, xtype uint32, offset uintptr)
}

// nativeFunctions calls straight into the driver through go-gl.
type nativeFunctions struct{}

func NativeFunctions() Functions { return nativeFunctions{} }

func ptr(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return &data[0]
}

func cstr(s string) *uint8 {
	if !strings.HasSuffix(s, "\x00") {
		s += "\x00"
	}
	return gl.Str(s)
}

func (nativeFunctions) Init() error { return gl.Init() }

func (nativeFunctions) GetString(name uint32) string {
	return gl.GoStr(gl.GetString(name))
}

func (nativeFunctions) Enable(capability uint32) { gl.Enable(capability) }
func (nativeFunctions) Disable(capability uint32) { gl.Disable(capability) }
func (nativeFunctions) Viewport(x, y, w, h int32) { gl.Viewport(x, y, w, h) }
func (nativeFunctions) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }
func (nativeFunctions) ClearDepth(depth float64) { gl.ClearDepth(depth) }
func (nativeFunctions) ClearStencil(s int32) { gl.ClearStencil(s) }
func (nativeFunctions) Clear(mask uint32) { gl.Clear(mask) }
func (nativeFunctions) PixelStorei(pname uint32, p int32) { gl.PixelStorei(pname, p) }
func (nativeFunctions) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }
func (nativeFunctions) ActiveTexture(unit uint32) { gl.ActiveTexture(unit) }
func (nativeFunctions) BindTexture(target, texture uint32) { gl.BindTexture(target, texture) }
func (nativeFunctions) GenerateMipmap(target uint32) { gl.GenerateMipmap(target) }

func (nativeFunctions) GenTexture() uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	return texture
}

func (nativeFunctions) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, data []byte) {
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, gl.Ptr(ptr(data)))
}

func (nativeFunctions) TexSubImage2D(target uint32, level, x, y, width, height int32, format, xtype uint32, data []byte) {
	gl.TexSubImage2D(target, level, x, y, width, height, format, xtype, gl.Ptr(ptr(data)))
}

func (nativeFunctions) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (nativeFunctions) TexParameterf(target, pname uint32, param float32) {
	gl.TexParameterf(target, pname, param)
}

func (nativeFunctions) GenBuffer() uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return buffer
}

func (nativeFunctions) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }
func (nativeFunctions) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (nativeFunctions) BufferData(target uint32, size int, data []byte, usage uint32) {
	gl.BufferData(target, size, gl.Ptr(ptr(data)), usage)
}

func (nativeFunctions) BufferSubData(target uint32, offset int, data []byte) {
	gl.BufferSubData(target, offset, len(data), gl.Ptr(ptr(data)))
}

func (nativeFunctions) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (nativeFunctions) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }
func (nativeFunctions) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }
func (nativeFunctions) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }
func (nativeFunctions) DisableVertexAttribArray(index uint32) { gl.DisableVertexAttribArray(index) }
func (nativeFunctions) BlendFunc(src, dst uint32) { gl.BlendFunc(src, dst) }
func (nativeFunctions) DepthFunc(fn uint32) { gl.DepthFunc(fn) }
func (nativeFunctions) DepthMask(flag bool) { gl.DepthMask(flag) }
func (nativeFunctions) DepthRange(near, far float64) { gl.DepthRange(near, far) }
func (nativeFunctions) ColorMask(r, g, b, a bool) { gl.ColorMask(r, g, b, a) }
func (nativeFunctions) CullFace(mode uint32) { gl.CullFace(mode) }
func (nativeFunctions) FrontFace(mode uint32) { gl.FrontFace(mode) }
func (nativeFunctions) PolygonOffset(factor, units float32) { gl.PolygonOffset(factor, units) }
func (nativeFunctions) StencilFunc(fn uint32, r int32, m uint32) { gl.StencilFunc(fn, r, m) }
func (nativeFunctions) StencilMask(mask uint32) { gl.StencilMask(mask) }

func (nativeFunctions) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, offset)
}

func (nativeFunctions) StencilOpSeparate(face, sfail, dpfail, dppass uint32) {
	gl.StencilOpSeparate(face, sfail, dpfail, dppass)
}

func (nativeFunctions) CreateShader(kind uint32) uint32 { return gl.CreateShader(kind) }

func (nativeFunctions) CompileShader(shader uint32, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		return false, strings.TrimRight(msg, "\x00")
	}
	return true, ""
}

func (nativeFunctions) DeleteShader(shader uint32) { gl.DeleteShader(shader) }
func (nativeFunctions) CreateProgram() uint32 { return gl.CreateProgram() }
func (nativeFunctions) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (nativeFunctions) BindAttribLocation(program, index uint32, name string) {
	gl.BindAttribLocation(program, index, cstr(name))
}

func (nativeFunctions) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		return false, strings.TrimRight(msg, "\x00")
	}
	return true, ""
}

func (nativeFunctions) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (nativeFunctions) UseProgram(program uint32) { gl.UseProgram(program) }

func (nativeFunctions) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, cstr(name))
}

func (nativeFunctions) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }
func (nativeFunctions) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (nativeFunctions) Uniform2fv(location int32, v []float32) {
	gl.Uniform2fv(location, 1, &v[0])
}

func (nativeFunctions) Uniform4fv(location int32, v []float32) {
	gl.Uniform4fv(location, 1, &v[0])
}

func (nativeFunctions) UniformMatrix4fv(location int32, m []float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (nativeFunctions) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (nativeFunctions) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	gl.DrawElementsWithOffset(mode, count, xtype, offset)
}
