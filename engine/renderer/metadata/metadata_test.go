package metadata

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadDescription() PipelineDescription {
	return PipelineDescription{
		State:     StateDescription{Blend: BlendOpaque, Depth: DepthCmpAlwaysWriteOff, ColorMask: ColorMaskAll, Cull: CullNone},
		Shader:    ShaderTexRect,
		Primitive: PrimitiveTriangleStrip,
		Textures:  []TextureInput{{Slot: 0, Sampler: SamplerBilinear}},
		VertexBuffers: []VertexBuffer{{
			Stride:     4,
			Attributes: []VertexAttribute{{Location: AttribPosition, Type: VertexAttributeU8x4Norm}},
		}},
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	a := quadDescription()
	b := quadDescription()
	assert.Equal(t, a.Encode(), b.Encode())

	mutations := []func(*PipelineDescription){
		func(d *PipelineDescription) { d.State.Blend = BlendAlpha },
		func(d *PipelineDescription) { d.State.Depth = DepthCmpLEQWriteOn },
		func(d *PipelineDescription) { d.State.ColorMask = ColorMaskNone },
		func(d *PipelineDescription) { d.State.PolygonOffset = true },
		func(d *PipelineDescription) { d.State.Stencil = StencilShadowQuad },
		func(d *PipelineDescription) { d.State.Cull = CullBack },
		func(d *PipelineDescription) { d.Shader = ShaderText },
		func(d *PipelineDescription) { d.Primitive = PrimitiveTriangles },
		func(d *PipelineDescription) { d.Index = IndexU32 },
		func(d *PipelineDescription) { d.Textures[0].Sampler = SamplerNearestClamped },
		func(d *PipelineDescription) { d.VertexBuffers[0].Stride = 8 },
		func(d *PipelineDescription) { d.VertexBuffers[0].Attributes[0].Offset = 4; d.VertexBuffers[0].Stride = 8 },
	}
	for i, mutate := range mutations {
		d := quadDescription()
		mutate(&d)
		assert.NotEqual(t, a.Encode(), d.Encode(), "mutation %d", i)
	}
}

func TestValidateRejectsBadDescriptions(t *testing.T) {
	require.NoError(t, quadDescription().Validate())

	d := quadDescription()
	d.Textures = []TextureInput{{Slot: 1, Sampler: SamplerBilinear}}
	assert.ErrorIs(t, d.Validate(), ErrInvalidPipeline)

	d = quadDescription()
	d.Shader = ShaderMode(200)
	assert.ErrorIs(t, d.Validate(), ErrUnknownShader)

	d = quadDescription()
	d.VertexBuffers[0].Attributes[0].Type = VertexAttributeType(99)
	assert.ErrorIs(t, d.Validate(), ErrUnsupportedFormat)

	d = quadDescription()
	d.VertexBuffers[0].Attributes[0].Type = VertexAttributeFloat4
	assert.ErrorIs(t, d.Validate(), ErrInvalidPipeline)

	d = quadDescription()
	d.VertexBuffers = append(d.VertexBuffers, VertexBuffer{Attributes: []VertexAttribute{{Location: AttribPosition, Type: VertexAttributeFloat2}}})
	assert.ErrorIs(t, d.Validate(), ErrInvalidPipeline)
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	a := quadDescription()
	b := a.Clone()
	b.Textures[0].Sampler = SamplerAnisotropic
	b.VertexBuffers[0].Attributes[0].Offset = 2
	assert.Equal(t, SamplerBilinear, a.Textures[0].Sampler)
	assert.Equal(t, uint32(0), a.VertexBuffers[0].Attributes[0].Offset)
}

func TestPredefinedPipelinesAreValid(t *testing.T) {
	names := PredefinedPipelineNames()
	require.NotEmpty(t, names)
	for _, name := range names {
		d, err := PredefinedPipeline(name)
		require.NoError(t, err)
		assert.NoError(t, d.Validate(), name)
	}
	_, err := PredefinedPipeline("Nope")
	assert.ErrorIs(t, err, ErrInvalidPipeline)
}

func TestStd140Layout(t *testing.T) {
	cfg, err := LookupShader(ShaderTexRect)
	require.NoError(t, err)

	offsets := map[string]uint32{}
	for _, f := range cfg.Constants.Fields {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, map[string]uint32{
		"transformationMatrix": 0,
		"color":                64,
		"tuv_offset":           80,
		"tuv_scale":            88,
	}, offsets)
	assert.Equal(t, uint32(96), cfg.Constants.Size)

	layout := Std140Layout([]ConstantField{{"a", UniformFloat}, {"b", UniformVec4}, {"c", UniformInt}})
	assert.Equal(t, uint32(16), layout.Fields[1].Offset)
	assert.Equal(t, uint32(32), layout.Fields[2].Offset)
	assert.Equal(t, uint32(48), layout.Size)
}

func TestConstantBlocksMatchTheirShaders(t *testing.T) {
	cases := []struct {
		block   ConstantBlock
		shaders []ShaderMode
	}{
		{ModelConstants{}, []ShaderMode{ShaderComponent, ShaderButton, ShaderNoLight}},
		{TerrainConstants{}, []ShaderMode{ShaderTerrain}},
		{TerrainDepthConstants{}, []ShaderMode{ShaderTerrainDepth}},
		{DecalsConstants{}, []ShaderMode{ShaderDecals}},
		{WaterConstants{}, []ShaderMode{ShaderWater}},
		{RectConstants{}, []ShaderMode{ShaderRect}},
		{TexturedRectConstants{}, []ShaderMode{ShaderTexRect, ShaderText}},
		{GfxColourConstants{}, []ShaderMode{ShaderGfxColour}},
		{GfxTextConstants{}, []ShaderMode{ShaderGfxText}},
		{GenericColorConstants{}, []ShaderMode{ShaderGenericColor}},
		{LineConstants{}, []ShaderMode{ShaderLine}},
	}
	covered := map[ShaderMode]bool{}
	for _, c := range cases {
		for _, s := range c.shaders {
			data, err := c.block.Encode(s)
			require.NoError(t, err, s.String())
			cfg, _ := LookupShader(s)
			assert.Len(t, data, int(cfg.Constants.Size))
			covered[s] = true
		}
	}
	for _, s := range ShaderModes() {
		assert.True(t, covered[s], "no constant block for %s", s)
	}

	_, err := RectConstants{}.Encode(ShaderLine)
	assert.ErrorIs(t, err, ErrConstantBlockShape)
}

func TestConstantRoundTripThroughLayout(t *testing.T) {
	c := TexturedRectConstants{
		Transformation: mgl32.Translate3D(1, 2, 3),
		UVOffset:       mgl32.Vec2{0.25, 0.5},
		UVScale:        mgl32.Vec2{2, 4},
		Color:          mgl32.Vec4{1, 0, 0, 1},
	}
	data, err := c.Encode(ShaderTexRect)
	require.NoError(t, err)

	cfg, _ := LookupShader(ShaderTexRect)
	m, ok := cfg.Constants.Field("transformationMatrix")
	require.True(t, ok)
	assert.Equal(t, c.Transformation[:], m.Float32s(data))
	scale, _ := cfg.Constants.Field("tuv_scale")
	assert.Equal(t, []float32{2, 4}, scale.Float32s(data))

	model, err := ModelConstants{TCMask: true}.Encode(ShaderComponent)
	require.NoError(t, err)
	mcfg, _ := LookupShader(ShaderComponent)
	tc, _ := mcfg.Constants.Field("tcmask")
	assert.Equal(t, int32(1), tc.Int32(model))
}

func TestPixelFormatsAndMips(t *testing.T) {
	assert.Equal(t, 3, PixelFormatRGB8.BytesPerPixel())
	assert.Equal(t, 4, PixelFormatRGBA8.BytesPerPixel())
	assert.Equal(t, 4, PixelFormatBGRA8.BytesPerPixel())
	assert.Equal(t, 0, PixelFormatInvalid.BytesPerPixel())
	assert.Equal(t, 16, TextureSize(2, 2, PixelFormatRGBA8))

	assert.Equal(t, uint32(1), MaxMipLevels(1, 1))
	assert.Equal(t, uint32(2), MaxMipLevels(2, 2))
	assert.Equal(t, uint32(9), MaxMipLevels(256, 16))
	assert.Equal(t, uint32(1), MipLevelSize(16, 8))
	assert.Equal(t, uint32(4), MipLevelSize(16, 2))
}

func TestShaderTableSharesStages(t *testing.T) {
	terrain, _ := LookupShader(ShaderTerrain)
	water, _ := LookupShader(ShaderWater)
	assert.Equal(t, terrain.VertexSPIRV, water.VertexSPIRV)
	assert.NotEqual(t, terrain.FragmentSPIRV, water.FragmentSPIRV)
	assert.Equal(t, "text", ShaderText.String())
	assert.Equal(t, ShaderText, mustLookup(t, ShaderText).Mode)
}

func mustLookup(t *testing.T, mode ShaderMode) ShaderConfig {
	cfg, err := LookupShader(mode)
	require.NoError(t, err)
	return cfg
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]BackendType{"opengl": BackendOpenGL, "GL": BackendOpenGL, "": BackendOpenGL, "Vulkan": BackendVulkan, " vk ": BackendVulkan} {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBackend("metal")
	assert.Error(t, err)
	assert.Equal(t, "vulkan", BackendVulkan.String())
}
