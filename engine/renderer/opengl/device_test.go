package opengl

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func newTestDevice(t *testing.T) (*OpenGLDevice, *recorder, *fakeWindow) {
	t.Helper()
	rec := newRecorder()
	dev, err := NewDeviceWithFunctions(metadata.DefaultRendererConfig(), shaderFiles{}, rec)
	require.NoError(t, err)
	win := &fakeWindow{}
	require.NoError(t, dev.SetSwapchain(win))
	return dev, rec, win
}

func expectFatal(t *testing.T, fn func()) {
	t.Helper()
	code := 0
	prev := core.SetExitFunc(func(c int) { code = c })
	defer core.SetExitFunc(prev)
	fn()
	assert.Equal(t, 1, code, "expected a fatal error")
}

func quadPipeline() metadata.PipelineDescription {
	return metadata.PipelineDescription{
		State: metadata.StateDescription{
			Blend:     metadata.BlendOpaque,
			Depth:     metadata.DepthCmpAlwaysWriteOff,
			ColorMask: metadata.ColorMaskAll,
			Cull:      metadata.CullNone,
		},
		Shader:    metadata.ShaderTexRect,
		Primitive: metadata.PrimitiveTriangleStrip,
		Textures:  []metadata.TextureInput{{Slot: 0, Sampler: metadata.SamplerBilinear}},
		VertexBuffers: []metadata.VertexBuffer{{
			Stride:     4,
			Attributes: []metadata.VertexAttribute{{Location: metadata.AttribPosition, Type: metadata.VertexAttributeU8x4Norm}},
		}},
	}
}

func TestSetSwapchainPreparesContext(t *testing.T) {
	dev, rec, win := newTestDevice(t)
	assert.True(t, win.current)
	assert.Equal(t, 1, win.interval)
	assert.Len(t, rec.named("Init"), 1)
	assert.Equal(t, [][]interface{}{{int32(0), int32(0), int32(800), int32(600)}}, rec.named("Viewport"))
	assert.Len(t, rec.named("GenVertexArray"), 1)
	assert.ErrorIs(t, dev.SetSwapchain(win), core.ErrAlreadyInitialized)
}

func TestCreateBeforeSwapchainFails(t *testing.T) {
	dev, err := NewDeviceWithFunctions(metadata.DefaultRendererConfig(), shaderFiles{}, newRecorder())
	require.NoError(t, err)
	_, err = dev.CreateTexture(1, 2, 2, metadata.PixelFormatRGBA8)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
	_, err = dev.CreateBuffer(metadata.BufferUsageVertex, 16)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestTexturedQuadDraw(t *testing.T) {
	dev, rec, _ := newTestDevice(t)

	tex, err := dev.CreateTexture(1, 2, 2, metadata.PixelFormatRGBA8)
	require.NoError(t, err)
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	require.NoError(t, tex.Upload(0, 0, 0, 2, 2, metadata.PixelFormatRGBA8, pixels))

	quad, err := dev.CreateBuffer(metadata.BufferUsageVertex, 16)
	require.NoError(t, err)
	require.NoError(t, quad.Upload(0, []byte{0, 0, 0, 0, 255, 0, 0, 0, 0, 255, 0, 0, 255, 255, 0, 0}))

	pso, err := dev.BuildPipeline(quadPipeline())
	require.NoError(t, err)

	mark := rec.mark()
	dev.BindPipeline(pso)
	dev.BindVertexBuffers(0, []metadata.VertexBufferBinding{{Buffer: quad}})
	dev.BindTextures(pso.Description().Textures, []metadata.Texture{tex})
	consts, err := metadata.TexturedRectConstants{Transformation: mgl32.Ident4(), UVScale: mgl32.Vec2{1, 1}, Color: mgl32.Vec4{1, 1, 1, 1}}.Encode(metadata.ShaderTexRect)
	require.NoError(t, err)
	dev.SetConstants(consts)
	dev.Draw(0, 4, metadata.PrimitiveTriangleStrip)

	uploads := rec.named("TexSubImage2D")
	require.Len(t, uploads, 1)
	assert.Equal(t, []interface{}{int32(0), int32(0), int32(0), int32(2), int32(2), uint32(gl.RGBA), uint32(gl.UNSIGNED_BYTE), pixels}, uploads[0])

	var draws []call
	for _, c := range rec.since(mark) {
		if c.name == "DrawArrays" || c.name == "DrawElements" {
			draws = append(draws, c)
		}
	}
	require.Len(t, draws, 1)
	assert.Equal(t, []interface{}{uint32(gl.TRIANGLE_STRIP), int32(0), int32(4)}, draws[0].args)

	st := rec.snapshot()
	assert.Equal(t, "false", st[capKey(gl.BLEND)])
	assert.Equal(t, "false", st[capKey(gl.DEPTH_TEST)])
	assert.Equal(t, "false", st["depth_mask"])
	assert.Equal(t, "false", st[capKey(gl.CULL_FACE)])
	assert.Equal(t, "false", st[capKey(gl.STENCIL_TEST)])
	assert.Equal(t, "true true true true", st["color_mask"])

	assert.Contains(t, rec.named("VertexAttribPointer"), []interface{}{metadata.AttribPosition, int32(4), uint32(gl.UNSIGNED_BYTE), true, int32(4), uintptr(0)})
	assert.Contains(t, rec.named("TexParameteri"), []interface{}{uint32(gl.TEXTURE_2D), uint32(gl.TEXTURE_MIN_FILTER), int32(gl.LINEAR)})
	assert.Contains(t, rec.named("TexParameteri"), []interface{}{uint32(gl.TEXTURE_2D), uint32(gl.TEXTURE_WRAP_S), int32(gl.CLAMP_TO_EDGE)})
}

func capKey(c uint32) string {
	return fmt.Sprintf("cap:%#x", c)
}

// withoutAttribs drops the attribute array flags, which only exist once a
// pipeline has enabled them.
func withoutAttribs(state map[string]string) map[string]string {
	for k := range state {
		if strings.HasPrefix(k, "attrib:") {
			delete(state, k)
		}
	}
	return state
}

func TestBindPipelineDoesNotLeakState(t *testing.T) {
	shadow := metadata.PipelineDescription{
		State: metadata.StateDescription{
			Blend:         metadata.BlendAdditive,
			Depth:         metadata.DepthCmpLEQWriteOn,
			ColorMask:     metadata.ColorMaskNone,
			PolygonOffset: true,
			Stencil:       metadata.StencilShadowSilhouette,
			Cull:          metadata.CullBack,
		},
		Shader:        metadata.ShaderGenericColor,
		Primitive:     metadata.PrimitiveTriangles,
		VertexBuffers: []metadata.VertexBuffer{{Attributes: []metadata.VertexAttribute{{Location: metadata.AttribPosition, Type: metadata.VertexAttributeFloat3}, {Location: metadata.AttribNormal, Type: metadata.VertexAttributeFloat3, Offset: 12}}}},
	}

	// quad bound after the shadow pipeline
	dirty, dirtyRec, _ := newTestDevice(t)
	first, err := dirty.BuildPipeline(shadow)
	require.NoError(t, err)
	second, err := dirty.BuildPipeline(quadPipeline())
	require.NoError(t, err)
	buf, err := dirty.CreateBuffer(metadata.BufferUsageVertex, 64)
	require.NoError(t, err)
	dirty.BindPipeline(first)
	dirty.BindVertexBuffers(0, []metadata.VertexBufferBinding{{Buffer: buf}})
	dirty.Draw(0, 3, metadata.PrimitiveTriangles)
	dirty.BindPipeline(second)

	// quad bound on a fresh context
	clean, cleanRec, _ := newTestDevice(t)
	_, err = clean.BuildPipeline(shadow)
	require.NoError(t, err)
	only, err := clean.BuildPipeline(quadPipeline())
	require.NoError(t, err)
	clean.BindPipeline(only)

	got := dirtyRec.snapshot()
	assert.Equal(t, "false", got["attrib:0"], "attributes of the previous pipeline are disabled")
	assert.Equal(t, "false", got["attrib:3"], "attributes of the previous pipeline are disabled")

	want := withoutAttribs(cleanRec.snapshot())
	got = withoutAttribs(got)
	// programs get different names, everything else must match
	delete(want, "program")
	delete(got, "program")
	assert.Equal(t, want, got)
}

func TestBuildingTwiceGivesIndependentPipelines(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	first, err := dev.BuildPipeline(quadPipeline())
	require.NoError(t, err)
	second, err := dev.BuildPipeline(quadPipeline())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Description().Encode(), second.Description().Encode())

	dev.BindPipeline(first)
	firstState := rec.snapshot()
	dev.BindPipeline(second)
	secondState := rec.snapshot()

	assert.NotEqual(t, firstState["program"], secondState["program"], "each build links its own program")
	delete(firstState, "program")
	delete(secondState, "program")
	assert.Equal(t, firstState, secondState)
}

func TestStateTranslation(t *testing.T) {
	st := translateState(metadata.StateDescription{Blend: metadata.BlendMultiplicative, Depth: metadata.DepthCmpLEQWriteOff, Stencil: metadata.StencilShadowQuad, Cull: metadata.CullBack})
	assert.True(t, st.blend)
	assert.Equal(t, [2]uint32{gl.ZERO, gl.SRC_COLOR}, [2]uint32{st.blendSrc, st.blendDst})
	assert.True(t, st.depthTest)
	assert.False(t, st.depthWrite)
	assert.Equal(t, uint32(gl.LEQUAL), st.depthFunc)
	assert.True(t, st.stencil)
	assert.Equal(t, uint32(gl.LESS), st.stencilFunc)
	assert.Equal(t, stencilOps{gl.KEEP, gl.KEEP, gl.KEEP}, st.stencilFront)
	assert.True(t, st.cull)
	assert.Equal(t, uint32(gl.CW), st.frontFace)
	assert.Equal(t, [4]bool{}, st.colorMask)

	sil := translateState(metadata.StateDescription{Stencil: metadata.StencilShadowSilhouette, Blend: metadata.BlendText})
	assert.Equal(t, uint32(gl.INCR_WRAP), sil.stencilFront.dppass)
	assert.Equal(t, uint32(gl.DECR_WRAP), sil.stencilBack.dppass)
	assert.Equal(t, uint32(gl.ALWAYS), sil.stencilFunc)
	assert.Equal(t, [2]uint32{gl.ONE, gl.ONE_MINUS_SRC_ALPHA}, [2]uint32{sil.blendSrc, sil.blendDst})

	always := translateState(metadata.StateDescription{Depth: metadata.DepthCmpAlwaysWriteOn})
	assert.True(t, always.depthTest)
	assert.Equal(t, uint32(gl.ALWAYS), always.depthFunc)
	assert.True(t, always.depthWrite)
	assert.False(t, always.blend)
}

func TestSetConstantsDecodesEveryUniform(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	pso, err := dev.BuildPipeline(quadPipeline())
	require.NoError(t, err)
	dev.BindPipeline(pso)

	c := metadata.TexturedRectConstants{
		Transformation: mgl32.Translate3D(4, 5, 6),
		UVOffset:       mgl32.Vec2{0.25, 0.5},
		UVScale:        mgl32.Vec2{2, 3},
		Color:          mgl32.Vec4{0.1, 0.2, 0.3, 0.4},
	}
	data, err := c.Encode(metadata.ShaderTexRect)
	require.NoError(t, err)
	dev.SetConstants(data)

	mats := rec.named("UniformMatrix4fv")
	require.Len(t, mats, 1)
	assert.Equal(t, rec.uniforms["transformationMatrix"], mats[0][0])
	assert.Equal(t, c.Transformation[:], mats[0][1])

	vec2s := rec.named("Uniform2fv")
	require.Len(t, vec2s, 2)
	assert.Equal(t, []interface{}{rec.uniforms["tuv_offset"], []float32{0.25, 0.5}}, vec2s[0])
	assert.Equal(t, []interface{}{rec.uniforms["tuv_scale"], []float32{2, 3}}, vec2s[1])

	vec4s := rec.named("Uniform4fv")
	require.Len(t, vec4s, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, vec4s[0][1])

	expectFatal(t, func() { dev.SetConstants(data[:10]) })
}

func TestSamplerUniformsFollowSlots(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	desc, err := metadata.PredefinedPipeline("Draw3DShapeOpaque")
	require.NoError(t, err)
	_, err = dev.BuildPipeline(desc)
	require.NoError(t, err)

	for slot, name := range []string{"Texture", "TextureTcmask", "TextureNormal", "TextureSpecular"} {
		assert.Contains(t, rec.named("Uniform1i"), []interface{}{rec.uniforms[name], int32(slot)})
	}
	program := rec.named("CreateProgram")[0][0]
	for location, name := range metadata.AttributeNames {
		assert.Contains(t, rec.named("BindAttribLocation"), []interface{}{program, uint32(location), name})
	}
}

func TestBuildPipelineReportsCompileAndLinkErrors(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	rec.failCompile["texturedrect.frag"] = true
	_, err := dev.BuildPipeline(quadPipeline())
	assert.ErrorIs(t, err, ErrShaderCompile)
	assert.Empty(t, rec.named("CreateProgram"))

	rec.failCompile = map[string]bool{}
	rec.failLink = true
	_, err = dev.BuildPipeline(quadPipeline())
	assert.ErrorIs(t, err, ErrProgramLink)
	assert.Len(t, rec.named("DeleteProgram"), 1)

	bad := quadPipeline()
	bad.Textures = append(bad.Textures, metadata.TextureInput{Slot: 1})
	_, err = dev.BuildPipeline(bad)
	assert.ErrorIs(t, err, metadata.ErrInvalidPipeline)
}

func TestTextureUploadValidation(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	_, err := dev.CreateTexture(1, 4, 4, metadata.PixelFormatInvalid)
	assert.ErrorIs(t, err, metadata.ErrUnsupportedFormat)
	_, err = dev.CreateTexture(4, 4, 4, metadata.PixelFormatRGBA8)
	assert.ErrorIs(t, err, metadata.ErrInvalidUpload)

	tex, err := dev.CreateTexture(3, 4, 4, metadata.PixelFormatRGB8)
	require.NoError(t, err)
	assert.Len(t, rec.named("TexImage2D"), 3)
	assert.Contains(t, rec.named("TexParameteri"), []interface{}{uint32(gl.TEXTURE_2D), uint32(gl.TEXTURE_MAX_LEVEL), int32(2)})

	assert.ErrorIs(t, tex.Upload(3, 0, 0, 1, 1, metadata.PixelFormatRGB8, make([]byte, 3)), metadata.ErrInvalidUpload)
	assert.ErrorIs(t, tex.Upload(1, 1, 0, 2, 2, metadata.PixelFormatRGB8, make([]byte, 12)), metadata.ErrInvalidUpload)
	assert.ErrorIs(t, tex.Upload(0, 0, 0, 2, 2, metadata.PixelFormatRGB8, make([]byte, 11)), metadata.ErrInvalidUpload)
	require.NoError(t, tex.Upload(2, 0, 0, 1, 1, metadata.PixelFormatRGB8, []byte{1, 2, 3}))

	tex.GenerateMipLevels()
	assert.Len(t, rec.named("GenerateMipmap"), 1)
	assert.NotZero(t, tex.ID())
	tex.Destroy()
	tex.Destroy()
	assert.Len(t, rec.named("DeleteTexture"), 1)
}

func TestBufferUpload(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	buf, err := dev.CreateBuffer(metadata.BufferUsageIndex, 8)
	require.NoError(t, err)
	assert.Contains(t, rec.named("BufferData"), []interface{}{uint32(gl.ELEMENT_ARRAY_BUFFER), 8, 8, uint32(gl.STATIC_DRAW)})

	require.NoError(t, buf.Upload(2, []byte{1, 2, 3, 4}))
	assert.Equal(t, []interface{}{uint32(gl.ELEMENT_ARRAY_BUFFER), 2, []byte{1, 2, 3, 4}}, rec.named("BufferSubData")[0])
	assert.ErrorIs(t, buf.Upload(6, []byte{1, 2, 3}), metadata.ErrInvalidUpload)
}

func TestStreamedVerticesOrphanScratch(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	pso, err := dev.BuildPipeline(quadPipeline())
	require.NoError(t, err)
	dev.BindPipeline(pso)

	dev.BindStreamedVertexBuffers(make([]byte, 64))
	dev.Draw(0, 16, metadata.PrimitiveTriangleStrip)

	assert.Contains(t, rec.named("BufferData"), []interface{}{uint32(gl.ARRAY_BUFFER), 64, 64, uint32(gl.STREAM_DRAW)})
	assert.Contains(t, rec.named("BindBuffer"), []interface{}{uint32(gl.ARRAY_BUFFER), dev.scratch})
}

func TestDrawElementsUsesByteOffset(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	dev.DrawElements(12, 6, metadata.PrimitiveTriangles, metadata.IndexU32)
	assert.Equal(t, []interface{}{uint32(gl.TRIANGLES), int32(6), uint32(gl.UNSIGNED_INT), uintptr(12)}, rec.named("DrawElements")[0])
}

func TestFlipPresentsAndClears(t *testing.T) {
	dev, rec, win := newTestDevice(t)
	mark := rec.mark()
	dev.Flip()
	assert.Equal(t, 1, win.swaps)

	var names []string
	for _, c := range rec.since(mark) {
		names = append(names, c.name)
	}
	assert.Equal(t, []string{"Viewport", "ColorMask", "DepthMask", "StencilMask", "ClearColor", "ClearDepth", "ClearStencil", "Clear"}, names)
}

func TestPerDrawMisuseIsFatal(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	expectFatal(t, func() { dev.BindVertexBuffers(0, nil) })
	expectFatal(t, func() { dev.SetConstants(nil) })
	expectFatal(t, func() { dev.BindPipeline(nil) })
	expectFatal(t, func() { dev.BindTextures([]metadata.TextureInput{{}}, nil) })
}

func TestOverrides(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	dev.SetPolygonOffset(2, 1.5)
	dev.SetDepthRange(0.1, 0.9)
	assert.Equal(t, []interface{}{float32(1.5), float32(2)}, rec.named("PolygonOffset")[0])
	assert.Equal(t, []interface{}{float64(float32(0.1)), float64(float32(0.9))}, rec.named("DepthRange")[0])
}

func TestDestroyReleasesPipelines(t *testing.T) {
	dev, rec, _ := newTestDevice(t)
	_, err := dev.BuildPipeline(quadPipeline())
	require.NoError(t, err)
	dev.Destroy()
	assert.Len(t, rec.named("DeleteProgram"), 1)
	assert.Len(t, rec.named("DeleteVertexArray"), 1)
	assert.Len(t, rec.named("DeleteBuffer"), 1)
}
