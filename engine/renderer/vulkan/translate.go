package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

// samplerTypes lists every sampler the device creates up front, in enum order.
var samplerTypes = []metadata.SamplerType{
	metadata.SamplerBilinear,
	metadata.SamplerBilinearRepeat,
	metadata.SamplerAnisotropic,
	metadata.SamplerAnisotropicRepeat,
	metadata.SamplerNearestClamped,
}

func primitiveTopology(p metadata.PrimitiveType) vk.PrimitiveTopology {
	switch p {
	case metadata.PrimitiveLines:
		return vk.PrimitiveTopologyLineList
	case metadata.PrimitiveTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case metadata.PrimitiveTriangleFan:
		return vk.PrimitiveTopologyTriangleFan
	default:
		return vk.PrimitiveTopologyTriangleList
	}
}

func attributeFormat(t metadata.VertexAttributeType) vk.Format {
	switch t {
	case metadata.VertexAttributeFloat2:
		return vk.FormatR32g32Sfloat
	case metadata.VertexAttributeFloat3:
		return vk.FormatR32g32b32Sfloat
	case metadata.VertexAttributeFloat4:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatR8g8b8a8Unorm
	}
}

func indexType(i metadata.IndexType) vk.IndexType {
	if i == metadata.IndexU32 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

// vertexInput returns one binding per vertex buffer, numbered by slot, and
// the attributes read from each.
func vertexInput(buffers []metadata.VertexBuffer) ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	bindings := make([]vk.VertexInputBindingDescription, 0, len(buffers))
	var attributes []vk.VertexInputAttributeDescription
	for slot, vb := range buffers {
		bindings = append(bindings, vk.VertexInputBindingDescription{
			Binding:   uint32(slot),
			Stride:    vb.EffectiveStride(),
			InputRate: vk.VertexInputRateVertex,
		})
		for _, a := range vb.Attributes {
			attributes = append(attributes, vk.VertexInputAttributeDescription{
				Location: a.Location,
				Binding:  uint32(slot),
				Format:   attributeFormat(a.Type),
				Offset:   a.Offset,
			})
		}
	}
	return bindings, attributes
}

func colorWriteMask(mask metadata.ColorMask) vk.ColorComponentFlags {
	if mask == metadata.ColorMaskNone {
		return 0
	}
	return vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
}

func blendAttachment(mode metadata.BlendMode, mask metadata.ColorMask) vk.PipelineColorBlendAttachmentState {
	state := vk.PipelineColorBlendAttachmentState{
		BlendEnable:    vk.True,
		ColorBlendOp:   vk.BlendOpAdd,
		AlphaBlendOp:   vk.BlendOpAdd,
		ColorWriteMask: colorWriteMask(mask),
	}
	setFactors := func(src, dst vk.BlendFactor) {
		state.SrcColorBlendFactor, state.DstColorBlendFactor = src, dst
		state.SrcAlphaBlendFactor, state.DstAlphaBlendFactor = src, dst
	}
	switch mode {
	case metadata.BlendAdditive:
		setFactors(vk.BlendFactorSrcAlpha, vk.BlendFactorOne)
	case metadata.BlendAlpha:
		setFactors(vk.BlendFactorSrcAlpha, vk.BlendFactorOneMinusSrcAlpha)
	case metadata.BlendPremultiplied:
		setFactors(vk.BlendFactorOne, vk.BlendFactorOneMinusSrcAlpha)
	case metadata.BlendMultiplicative, metadata.BlendText:
		state.SrcColorBlendFactor, state.DstColorBlendFactor = vk.BlendFactorOne, vk.BlendFactorOneMinusSrcColor
		state.SrcAlphaBlendFactor, state.DstAlphaBlendFactor = vk.BlendFactorOne, vk.BlendFactorOneMinusSrcAlpha
	default:
		state.BlendEnable = vk.False
		setFactors(vk.BlendFactorOne, vk.BlendFactorZero)
	}
	return state
}

func stencilOp(pass vk.StencilOp, compare vk.CompareOp) vk.StencilOpState {
	return vk.StencilOpState{
		FailOp:      vk.StencilOpKeep,
		PassOp:      pass,
		DepthFailOp: vk.StencilOpKeep,
		CompareOp:   compare,
		CompareMask: ^uint32(0),
		WriteMask:   ^uint32(0),
		Reference:   0,
	}
}

func depthStencilState(depth metadata.DepthMode, stencil metadata.StencilMode) vk.PipelineDepthStencilStateCreateInfo {
	state := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.False,
		DepthWriteEnable:      vk.False,
		DepthCompareOp:        vk.CompareOpAlways,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		MinDepthBounds:        0,
		MaxDepthBounds:        1,
	}
	if depth.TestsDepth() {
		state.DepthTestEnable = vk.True
		state.DepthCompareOp = vk.CompareOpLessOrEqual
	}
	if depth.WritesDepth() {
		// Vulkan only writes depth while the test is enabled.
		state.DepthTestEnable = vk.True
		state.DepthWriteEnable = vk.True
	}

	switch stencil {
	case metadata.StencilShadowSilhouette:
		state.StencilTestEnable = vk.True
		state.Front = stencilOp(vk.StencilOpIncrementAndWrap, vk.CompareOpAlways)
		state.Back = stencilOp(vk.StencilOpDecrementAndWrap, vk.CompareOpAlways)
	case metadata.StencilShadowQuad:
		state.StencilTestEnable = vk.True
		state.Front = stencilOp(vk.StencilOpKeep, vk.CompareOpLess)
		state.Back = state.Front
	}
	return state
}

func rasterizationState(s metadata.StateDescription) vk.PipelineRasterizationStateCreateInfo {
	state := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}
	if s.Cull == metadata.CullBack {
		state.CullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	if s.PolygonOffset {
		state.DepthBiasEnable = vk.True
	}
	return state
}

func samplerCreateInfo(s metadata.SamplerType) vk.SamplerCreateInfo {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  0,
		BorderColor:             vk.BorderColorFloatTransparentBlack,
		UnnormalizedCoordinates: vk.False,
	}
	switch {
	case s == metadata.SamplerNearestClamped:
		info.MagFilter = vk.FilterNearest
		info.MinFilter = vk.FilterNearest
	case s.Anisotropic():
		info.MipmapMode = vk.SamplerMipmapModeLinear
		info.AnisotropyEnable = vk.True
		info.MaxAnisotropy = 16
		info.MaxLod = 10
	}
	if s.Repeats() {
		info.AddressModeU = vk.SamplerAddressModeRepeat
		info.AddressModeV = vk.SamplerAddressModeRepeat
		info.AddressModeW = vk.SamplerAddressModeRepeat
	}
	return info
}

// zeroSwizzle makes a view read as transparent black whatever the image holds.
var zeroSwizzle = vk.ComponentMapping{
	R: vk.ComponentSwizzleZero,
	G: vk.ComponentSwizzleZero,
	B: vk.ComponentSwizzleZero,
	A: vk.ComponentSwizzleZero,
}
