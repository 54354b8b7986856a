package metadata

import (
	"fmt"
	"sort"
)

func singleAttribute(location uint32, t VertexAttributeType, stride uint32) VertexBuffer {
	return VertexBuffer{Stride: stride, Attributes: []VertexAttribute{{Location: location, Type: t}}}
}

var (
	vtx2       = singleAttribute(AttribPosition, VertexAttributeFloat2, 0)
	vtx3       = singleAttribute(AttribPosition, VertexAttributeFloat3, 0)
	texCoord   = singleAttribute(AttribTexCoord, VertexAttributeFloat2, 0)
	colour     = singleAttribute(AttribColor, VertexAttributeU8x4Norm, 0)
	normal     = singleAttribute(AttribNormal, VertexAttributeFloat3, 0)
	unitQuad   = singleAttribute(AttribPosition, VertexAttributeU8x4Norm, 0)
	oneTexture = []TextureInput{{Slot: 0, Sampler: SamplerBilinear}}
)

func state(blend BlendMode, depth DepthMode) StateDescription {
	return StateDescription{Blend: blend, Depth: depth, ColorMask: ColorMaskAll}
}

func draw3DShape(blend BlendMode) PipelineDescription {
	return PipelineDescription{
		State:     StateDescription{Blend: blend, Depth: DepthCmpLEQWriteOn, ColorMask: ColorMaskAll, Cull: CullBack},
		Shader:    ShaderComponent,
		Primitive: PrimitiveTriangles,
		Textures: []TextureInput{
			{Slot: 0, Sampler: SamplerAnisotropicRepeat},
			{Slot: 1, Sampler: SamplerBilinearRepeat},
			{Slot: 2, Sampler: SamplerAnisotropicRepeat},
			{Slot: 3, Sampler: SamplerAnisotropicRepeat},
		},
		VertexBuffers: []VertexBuffer{vtx3, normal, texCoord},
	}
}

func gfx(blend BlendMode, depth DepthMode, shader ShaderMode, position, second VertexBuffer, textures []TextureInput) PipelineDescription {
	return PipelineDescription{
		State:         state(blend, depth),
		Shader:        shader,
		Primitive:     PrimitiveTriangles,
		Textures:      textures,
		VertexBuffers: []VertexBuffer{position, second},
	}
}

func quad(blend BlendMode, shader ShaderMode, textures []TextureInput) PipelineDescription {
	return PipelineDescription{
		State:         state(blend, DepthCmpAlwaysWriteOff),
		Shader:        shader,
		Primitive:     PrimitiveTriangleStrip,
		Textures:      textures,
		VertexBuffers: []VertexBuffer{unitQuad},
	}
}

// predefinedPipelines are the pipelines most draw-call producers need.
var predefinedPipelines = map[string]PipelineDescription{
	"Draw3DShapeOpaque":   draw3DShape(BlendOpaque),
	"Draw3DShapeAlpha":    draw3DShape(BlendAlpha),
	"Draw3DShapePremul":   draw3DShape(BlendPremultiplied),
	"Draw3DShapeAdditive": draw3DShape(BlendAdditive),
	"Draw3DButton": func() PipelineDescription {
		d := draw3DShape(BlendOpaque)
		d.Shader = ShaderButton
		return d
	}(),
	"TransColouredTriangle": {
		State:         state(BlendAdditive, DepthCmpLEQWriteOn),
		Shader:        ShaderGenericColor,
		Primitive:     PrimitiveTriangleFan,
		VertexBuffers: []VertexBuffer{vtx3},
	},
	"DrawStencilShadow": {
		State: StateDescription{
			Blend: BlendOpaque, Depth: DepthCmpLEQWriteOff, ColorMask: ColorMaskNone,
			Stencil: StencilShadowSilhouette, Cull: CullNone, PolygonOffset: true,
		},
		Shader:        ShaderGenericColor,
		Primitive:     PrimitiveTriangles,
		VertexBuffers: []VertexBuffer{vtx3},
	},
	"ShadowBox2D": {
		State: StateDescription{
			Blend: BlendAlpha, Depth: DepthCmpAlwaysWriteOff, ColorMask: ColorMaskAll,
			Stencil: StencilShadowQuad,
		},
		Shader:        ShaderRect,
		Primitive:     PrimitiveTriangleStrip,
		VertexBuffers: []VertexBuffer{unitQuad},
	},
	"TerrainDepth": {
		State:         StateDescription{Blend: BlendOpaque, Depth: DepthCmpLEQWriteOn, ColorMask: ColorMaskNone, PolygonOffset: true},
		Shader:        ShaderTerrainDepth,
		Primitive:     PrimitiveTriangles,
		Textures:      []TextureInput{{Slot: 0, Sampler: SamplerBilinear}},
		VertexBuffers: []VertexBuffer{singleAttribute(AttribPosition, VertexAttributeFloat3, 12)},
	},
	"TerrainLayer": {
		State:     state(BlendAdditive, DepthCmpLEQWriteOff),
		Shader:    ShaderTerrain,
		Primitive: PrimitiveTriangles,
		Textures:  []TextureInput{{Slot: 0, Sampler: SamplerAnisotropicRepeat}, {Slot: 1, Sampler: SamplerBilinear}},
		Index:     IndexU32,
		VertexBuffers: []VertexBuffer{
			singleAttribute(AttribPosition, VertexAttributeFloat3, 12),
			singleAttribute(AttribColor, VertexAttributeU8x4Norm, 4),
		},
	},
	"TerrainDecals": {
		State:     state(BlendAlpha, DepthCmpLEQWriteOff),
		Shader:    ShaderDecals,
		Primitive: PrimitiveTriangles,
		Textures:  []TextureInput{{Slot: 0, Sampler: SamplerAnisotropic}, {Slot: 1, Sampler: SamplerBilinear}},
		VertexBuffers: []VertexBuffer{{
			Stride: 20,
			Attributes: []VertexAttribute{
				{Location: AttribPosition, Type: VertexAttributeFloat3, Offset: 0},
				{Location: AttribTexCoord, Type: VertexAttributeFloat2, Offset: 12},
			},
		}},
	},
	"Water": {
		State:         state(BlendMultiplicative, DepthCmpLEQWriteOff),
		Shader:        ShaderWater,
		Primitive:     PrimitiveTriangles,
		Textures:      []TextureInput{{Slot: 0, Sampler: SamplerAnisotropicRepeat}, {Slot: 1, Sampler: SamplerAnisotropicRepeat}},
		Index:         IndexU32,
		VertexBuffers: []VertexBuffer{singleAttribute(AttribPosition, VertexAttributeFloat3, 12)},
	},
	"Video":         gfx(BlendOpaque, DepthCmpAlwaysWriteOff, ShaderGfxText, vtx2, texCoord, oneTexture),
	"BackDrop":      gfx(BlendOpaque, DepthCmpAlwaysWriteOff, ShaderGfxText, vtx2, texCoord, oneTexture),
	"Skybox":        gfx(BlendOpaque, DepthCmpLEQWriteOff, ShaderGfxText, vtx3, texCoord, oneTexture),
	"Radar":         gfx(BlendAlpha, DepthCmpAlwaysWriteOff, ShaderGfxText, vtx2, texCoord, oneTexture),
	"RadarView":     gfx(BlendAlpha, DepthCmpAlwaysWriteOff, ShaderGfxColour, vtx2, colour, nil),
	"DrawImage":     quad(BlendAlpha, ShaderTexRect, oneTexture),
	"DrawImageText": quad(BlendText, ShaderText, oneTexture),
	"UniTransBox":   quad(BlendAlpha, ShaderRect, nil),
	"BoxFill":       quad(BlendOpaque, ShaderRect, nil),
	"BoxFillAlpha":  quad(BlendAlpha, ShaderRect, nil),
	"Line": {
		State:         state(BlendAlpha, DepthCmpAlwaysWriteOff),
		Shader:        ShaderLine,
		Primitive:     PrimitiveLines,
		VertexBuffers: []VertexBuffer{unitQuad},
	},
}

// PredefinedPipeline returns a deep copy of a named description.
func PredefinedPipeline(name string) (PipelineDescription, error) {
	d, ok := predefinedPipelines[name]
	if !ok {
		return PipelineDescription{}, fmt.Errorf("%w: no predefined pipeline %q", ErrInvalidPipeline, name)
	}
	return d.Clone(), nil
}

// PredefinedPipelineNames returns the table keys in sorted order.
func PredefinedPipelineNames() []string {
	names := make([]string, 0, len(predefinedPipelines))
	for name := range predefinedPipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
