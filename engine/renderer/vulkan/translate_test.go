package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func TestPrimitiveTopology(t *testing.T) {
	assert.Equal(t, vk.PrimitiveTopologyLineList, primitiveTopology(metadata.PrimitiveLines))
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, primitiveTopology(metadata.PrimitiveTriangles))
	assert.Equal(t, vk.PrimitiveTopologyTriangleStrip, primitiveTopology(metadata.PrimitiveTriangleStrip))
	assert.Equal(t, vk.PrimitiveTopologyTriangleFan, primitiveTopology(metadata.PrimitiveTriangleFan))
}

func TestAttributeFormat(t *testing.T) {
	assert.Equal(t, vk.FormatR32g32Sfloat, attributeFormat(metadata.VertexAttributeFloat2))
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attributeFormat(metadata.VertexAttributeFloat3))
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, attributeFormat(metadata.VertexAttributeFloat4))
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, attributeFormat(metadata.VertexAttributeU8x4Norm))
}

func TestIndexType(t *testing.T) {
	assert.Equal(t, vk.IndexTypeUint16, indexType(metadata.IndexU16))
	assert.Equal(t, vk.IndexTypeUint32, indexType(metadata.IndexU32))
}

func TestVertexInputBindsOneBufferPerSlot(t *testing.T) {
	bindings, attributes := vertexInput([]metadata.VertexBuffer{
		{
			Attributes: []metadata.VertexAttribute{
				{Location: metadata.AttribPosition, Type: metadata.VertexAttributeFloat3, Offset: 0},
				{Location: metadata.AttribTexCoord, Type: metadata.VertexAttributeFloat2, Offset: 12},
			},
		},
		{
			Stride:     8,
			Attributes: []metadata.VertexAttribute{{Location: metadata.AttribColor, Type: metadata.VertexAttributeU8x4Norm}},
		},
	})

	if assert.Len(t, bindings, 2) {
		assert.Equal(t, uint32(0), bindings[0].Binding)
		assert.Equal(t, uint32(20), bindings[0].Stride, "packed stride")
		assert.Equal(t, uint32(1), bindings[1].Binding)
		assert.Equal(t, uint32(8), bindings[1].Stride)
		assert.Equal(t, vk.VertexInputRateVertex, bindings[1].InputRate)
	}
	if assert.Len(t, attributes, 3) {
		assert.Equal(t, uint32(12), attributes[1].Offset)
		assert.Equal(t, uint32(0), attributes[1].Binding)
		assert.Equal(t, metadata.AttribColor, attributes[2].Location)
		assert.Equal(t, uint32(1), attributes[2].Binding)
		assert.Equal(t, vk.FormatR8g8b8a8Unorm, attributes[2].Format)
	}
}

func TestBlendAttachment(t *testing.T) {
	full := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)

	opaque := blendAttachment(metadata.BlendOpaque, metadata.ColorMaskAll)
	assert.Equal(t, vk.Bool32(vk.False), opaque.BlendEnable)
	assert.Equal(t, full, opaque.ColorWriteMask)

	cases := []struct {
		mode               metadata.BlendMode
		srcColor, dstColor vk.BlendFactor
		srcAlpha, dstAlpha vk.BlendFactor
	}{
		{metadata.BlendAdditive, vk.BlendFactorSrcAlpha, vk.BlendFactorOne, vk.BlendFactorSrcAlpha, vk.BlendFactorOne},
		{metadata.BlendAlpha, vk.BlendFactorSrcAlpha, vk.BlendFactorOneMinusSrcAlpha, vk.BlendFactorSrcAlpha, vk.BlendFactorOneMinusSrcAlpha},
		{metadata.BlendPremultiplied, vk.BlendFactorOne, vk.BlendFactorOneMinusSrcAlpha, vk.BlendFactorOne, vk.BlendFactorOneMinusSrcAlpha},
		{metadata.BlendMultiplicative, vk.BlendFactorOne, vk.BlendFactorOneMinusSrcColor, vk.BlendFactorOne, vk.BlendFactorOneMinusSrcAlpha},
		{metadata.BlendText, vk.BlendFactorOne, vk.BlendFactorOneMinusSrcColor, vk.BlendFactorOne, vk.BlendFactorOneMinusSrcAlpha},
	}
	for _, c := range cases {
		t.Run(c.mode.String(), func(t *testing.T) {
			s := blendAttachment(c.mode, metadata.ColorMaskAll)
			assert.Equal(t, vk.Bool32(vk.True), s.BlendEnable)
			assert.Equal(t, c.srcColor, s.SrcColorBlendFactor)
			assert.Equal(t, c.dstColor, s.DstColorBlendFactor)
			assert.Equal(t, c.srcAlpha, s.SrcAlphaBlendFactor)
			assert.Equal(t, c.dstAlpha, s.DstAlphaBlendFactor)
			assert.Equal(t, vk.BlendOpAdd, s.ColorBlendOp)
		})
	}
}

func TestColorWriteMaskIsAllOrNothing(t *testing.T) {
	assert.Zero(t, colorWriteMask(metadata.ColorMaskNone))
	assert.Equal(t, colorWriteMask(metadata.ColorMaskAll), colorWriteMask(metadata.ColorMaskRed))
}

func TestDepthStencilState(t *testing.T) {
	leq := depthStencilState(metadata.DepthCmpLEQWriteOn, metadata.StencilDisabled)
	assert.Equal(t, vk.Bool32(vk.True), leq.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.True), leq.DepthWriteEnable)
	assert.Equal(t, vk.CompareOpLessOrEqual, leq.DepthCompareOp)
	assert.Equal(t, vk.Bool32(vk.False), leq.StencilTestEnable)

	readOnly := depthStencilState(metadata.DepthCmpLEQWriteOff, metadata.StencilDisabled)
	assert.Equal(t, vk.Bool32(vk.True), readOnly.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.False), readOnly.DepthWriteEnable)

	off := depthStencilState(metadata.DepthCmpAlwaysWriteOff, metadata.StencilDisabled)
	assert.Equal(t, vk.Bool32(vk.False), off.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.False), off.DepthWriteEnable)

	writeOnly := depthStencilState(metadata.DepthCmpAlwaysWriteOn, metadata.StencilDisabled)
	assert.Equal(t, vk.Bool32(vk.True), writeOnly.DepthWriteEnable)
	assert.Equal(t, vk.CompareOpAlways, writeOnly.DepthCompareOp, "test passes every fragment")

	silhouette := depthStencilState(metadata.DepthCmpLEQWriteOff, metadata.StencilShadowSilhouette)
	assert.Equal(t, vk.Bool32(vk.True), silhouette.StencilTestEnable)
	assert.Equal(t, vk.StencilOpIncrementAndWrap, silhouette.Front.PassOp)
	assert.Equal(t, vk.StencilOpDecrementAndWrap, silhouette.Back.PassOp)
	assert.Equal(t, vk.CompareOpAlways, silhouette.Front.CompareOp)
	assert.Equal(t, ^uint32(0), silhouette.Back.WriteMask)

	quad := depthStencilState(metadata.DepthCmpAlwaysWriteOff, metadata.StencilShadowQuad)
	assert.Equal(t, vk.Bool32(vk.True), quad.StencilTestEnable)
	assert.Equal(t, vk.StencilOpKeep, quad.Front.PassOp)
	assert.Equal(t, vk.CompareOpLess, quad.Front.CompareOp)
	assert.Equal(t, uint32(0), quad.Front.Reference)
	assert.Equal(t, quad.Front, quad.Back)
}

func TestRasterizationState(t *testing.T) {
	s := rasterizationState(metadata.StateDescription{Cull: metadata.CullBack, PolygonOffset: true})
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), s.CullMode)
	assert.Equal(t, vk.Bool32(vk.True), s.DepthBiasEnable)
	assert.Equal(t, vk.FrontFaceClockwise, s.FrontFace)
	assert.Equal(t, float32(1), s.LineWidth)

	s = rasterizationState(metadata.StateDescription{Cull: metadata.CullNone})
	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), s.CullMode)
	assert.Equal(t, vk.Bool32(vk.False), s.DepthBiasEnable)
}

func TestSamplerCreateInfo(t *testing.T) {
	bilinear := samplerCreateInfo(metadata.SamplerBilinear)
	assert.Equal(t, vk.FilterLinear, bilinear.MagFilter)
	assert.Equal(t, vk.SamplerMipmapModeNearest, bilinear.MipmapMode)
	assert.Equal(t, vk.Bool32(vk.False), bilinear.AnisotropyEnable)
	assert.Equal(t, float32(0), bilinear.MaxLod)
	assert.Equal(t, vk.SamplerAddressModeClampToEdge, bilinear.AddressModeU)

	repeat := samplerCreateInfo(metadata.SamplerBilinearRepeat)
	assert.Equal(t, vk.SamplerAddressModeRepeat, repeat.AddressModeU)
	assert.Equal(t, vk.SamplerAddressModeRepeat, repeat.AddressModeV)

	aniso := samplerCreateInfo(metadata.SamplerAnisotropicRepeat)
	assert.Equal(t, vk.Bool32(vk.True), aniso.AnisotropyEnable)
	assert.Equal(t, float32(16), aniso.MaxAnisotropy)
	assert.Equal(t, float32(10), aniso.MaxLod)
	assert.Equal(t, vk.SamplerMipmapModeLinear, aniso.MipmapMode)
	assert.Equal(t, vk.SamplerAddressModeRepeat, aniso.AddressModeW)

	nearest := samplerCreateInfo(metadata.SamplerNearestClamped)
	assert.Equal(t, vk.FilterNearest, nearest.MinFilter)
	assert.Equal(t, vk.FilterNearest, nearest.MagFilter)
	assert.Equal(t, vk.SamplerAddressModeClampToEdge, nearest.AddressModeV)
}

func TestSamplerTypesMatchEnumOrder(t *testing.T) {
	for i, s := range samplerTypes {
		assert.Equal(t, metadata.SamplerType(i), s)
	}
}
