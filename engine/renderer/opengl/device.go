package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

/**
 * @brief Immediate-mode device. Every call goes straight to the current GL context.
 */
type OpenGLDevice struct {
	gl      Functions
	config  metadata.RendererConfig
	shaders metadata.ShaderSource
	window  metadata.Window

	vao     uint32
	scratch uint32

	pipelines []*OpenGLPipeline
	current   *OpenGLPipeline
	// attribute locations enabled since the last BindPipeline
	enabled map[uint32]bool

	width  int32
	height int32
}

// NewDevice creates a device that talks to the driver through go-gl.
func NewDevice(cfg metadata.RendererConfig, shaders metadata.ShaderSource) (*OpenGLDevice, error) {
	return NewDeviceWithFunctions(cfg, shaders, NativeFunctions())
}

func NewDeviceWithFunctions(cfg metadata.RendererConfig, shaders metadata.ShaderSource, fns Functions) (*OpenGLDevice, error) {
	if shaders == nil {
		return nil, fmt.Errorf("opengl device needs a shader source")
	}
	return &OpenGLDevice{
		gl:      fns,
		config:  cfg,
		shaders: shaders,
		enabled: make(map[uint32]bool),
	}, nil
}

func (d *OpenGLDevice) Backend() metadata.BackendType { return metadata.BackendOpenGL }

func (d *OpenGLDevice) requireContext() error {
	if d.window == nil {
		return fmt.Errorf("opengl device has no context: %w", core.ErrNotInitialized)
	}
	return nil
}

// SetSwapchain makes the window's context current, loads the GL entry points
// and sets up the vertex array, streaming buffer and viewport.
func (d *OpenGLDevice) SetSwapchain(window metadata.Window) error {
	if d.window != nil {
		return core.ErrAlreadyInitialized
	}
	window.MakeContextCurrent()
	if err := d.gl.Init(); err != nil {
		return fmt.Errorf("failed to load OpenGL: %w", err)
	}
	if d.config.VSync {
		window.SetSwapInterval(1)
	} else {
		window.SetSwapInterval(0)
	}
	d.window = window

	core.LogInfo("OpenGL vendor: %s", d.gl.GetString(gl.VENDOR))
	core.LogInfo("OpenGL renderer: %s", d.gl.GetString(gl.RENDERER))
	core.LogInfo("OpenGL version: %s, GLSL %s", d.gl.GetString(gl.VERSION), d.gl.GetString(gl.SHADING_LANGUAGE_VERSION))

	d.gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	d.vao = d.gl.GenVertexArray()
	d.gl.BindVertexArray(d.vao)
	d.scratch = d.gl.GenBuffer()

	d.updateViewport()
	core.LogInfo("OpenGL swapchain: %dx%d, double buffered, vsync %t", d.width, d.height, d.config.VSync)
	d.clear()
	return nil
}

func (d *OpenGLDevice) updateViewport() {
	w, h := d.window.FramebufferSize()
	d.width, d.height = int32(w), int32(h)
	d.gl.Viewport(0, 0, d.width, d.height)
}

// clear resets the write masks, which gate glClear, then clears every buffer.
func (d *OpenGLDevice) clear() {
	d.gl.ColorMask(true, true, true, true)
	d.gl.DepthMask(true)
	d.gl.StencilMask(^uint32(0))
	d.gl.ClearColor(0, 0, 0, 1)
	d.gl.ClearDepth(1)
	d.gl.ClearStencil(0)
	d.gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
}

func (d *OpenGLDevice) BindPipeline(pso metadata.PipelineStateObject) {
	p, ok := pso.(*OpenGLPipeline)
	if !ok || p == nil || p.program == 0 {
		core.LogFatal("BindPipeline: %T is not a live OpenGL pipeline", pso)
		return
	}
	for location := range d.enabled {
		d.gl.DisableVertexAttribArray(location)
		delete(d.enabled, location)
	}
	d.current = p
	d.gl.UseProgram(p.program)
	p.state.apply(d.gl)
}

func (d *OpenGLDevice) bindVertexSlot(slot uint32, buffer uint32, offset uint32) {
	layout := d.current.desc.VertexBuffers[slot]
	stride := int32(layout.EffectiveStride())
	d.gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	for _, a := range layout.Attributes {
		d.gl.EnableVertexAttribArray(a.Location)
		d.gl.VertexAttribPointer(a.Location, a.Type.Components(), attributeType(a.Type), a.Type.Normalized(), stride, uintptr(offset+a.Offset))
		d.enabled[a.Location] = true
	}
}

func (d *OpenGLDevice) BindVertexBuffers(firstSlot uint32, bindings []metadata.VertexBufferBinding) {
	if d.current == nil {
		core.LogFatal("BindVertexBuffers called before BindPipeline")
		return
	}
	for i, b := range bindings {
		slot := firstSlot + uint32(i)
		if slot >= uint32(len(d.current.desc.VertexBuffers)) {
			core.LogFatal("BindVertexBuffers: slot %d not in pipeline %s", slot, d.current.label)
			return
		}
		buf, ok := b.Buffer.(*OpenGLBuffer)
		if !ok || buf == nil {
			core.LogFatal("BindVertexBuffers: %T is not an OpenGL buffer", b.Buffer)
			return
		}
		d.bindVertexSlot(slot, buf.id, b.Offset)
	}
}

// BindStreamedVertexBuffers orphans the streaming buffer with data and binds it at slot 0.
func (d *OpenGLDevice) BindStreamedVertexBuffers(data []byte) {
	if d.current == nil || len(d.current.desc.VertexBuffers) == 0 {
		core.LogFatal("BindStreamedVertexBuffers needs a bound pipeline with a vertex buffer")
		return
	}
	d.gl.BindBuffer(gl.ARRAY_BUFFER, d.scratch)
	d.gl.BufferData(gl.ARRAY_BUFFER, len(data), data, gl.STREAM_DRAW)
	d.bindVertexSlot(0, d.scratch, 0)
}

func (d *OpenGLDevice) BindIndexBuffer(buffer metadata.Buffer, index metadata.IndexType) {
	buf, ok := buffer.(*OpenGLBuffer)
	if !ok || buf == nil || buf.usage != metadata.BufferUsageIndex {
		core.LogFatal("BindIndexBuffer: %T is not an OpenGL index buffer", buffer)
		return
	}
	if d.current != nil && index != d.current.desc.Index {
		core.LogWarn("BindIndexBuffer: %s indices bound to pipeline %s built for %s", index, d.current.label, d.current.desc.Index)
	}
	d.gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.id)
}

func (d *OpenGLDevice) BindTextures(inputs []metadata.TextureInput, textures []metadata.Texture) {
	if len(inputs) != len(textures) {
		core.LogFatal("BindTextures: %d inputs for %d textures", len(inputs), len(textures))
		return
	}
	for i, in := range inputs {
		d.gl.ActiveTexture(gl.TEXTURE0 + in.Slot)
		var id uint32
		if textures[i] != nil {
			t, ok := textures[i].(*OpenGLTexture)
			if !ok {
				core.LogFatal("BindTextures: %T is not an OpenGL texture", textures[i])
				return
			}
			id = t.id
		}
		d.gl.BindTexture(gl.TEXTURE_2D, id)
		if id != 0 {
			samplerState(in.Sampler).apply(d.gl)
		}
	}
	d.gl.ActiveTexture(gl.TEXTURE0)
}

func (d *OpenGLDevice) SetConstants(data []byte) {
	if d.current == nil {
		core.LogFatal("SetConstants called before BindPipeline")
		return
	}
	if err := d.current.setConstants(d.gl, data); err != nil {
		core.LogFatal("SetConstants: %s", err)
	}
}

func (d *OpenGLDevice) Draw(offset, count uint32, primitive metadata.PrimitiveType) {
	d.gl.DrawArrays(primitiveMode(primitive), int32(offset), int32(count))
}

func (d *OpenGLDevice) DrawElements(offset, count uint32, primitive metadata.PrimitiveType, index metadata.IndexType) {
	d.gl.DrawElements(primitiveMode(primitive), int32(count), indexType(index), uintptr(offset))
}

func (d *OpenGLDevice) SetPolygonOffset(offset, slope float32) {
	d.gl.PolygonOffset(slope, offset)
}

func (d *OpenGLDevice) SetDepthRange(near, far float32) {
	d.gl.DepthRange(float64(near), float64(far))
}

// Flip presents the back buffer and clears the next one.
func (d *OpenGLDevice) Flip() {
	if d.window == nil {
		core.LogFatal("Flip called before SetSwapchain")
		return
	}
	d.window.SwapBuffers()
	d.updateViewport()
	d.clear()
}

func (d *OpenGLDevice) Destroy() {
	for _, p := range d.pipelines {
		p.destroy(d.gl)
	}
	d.pipelines = nil
	d.current = nil
	if d.window == nil {
		return
	}
	if d.scratch != 0 {
		d.gl.DeleteBuffer(d.scratch)
		d.scratch = 0
	}
	if d.vao != 0 {
		d.gl.DeleteVertexArray(d.vao)
		d.vao = 0
	}
	core.LogInfo("OpenGL device destroyed")
}
