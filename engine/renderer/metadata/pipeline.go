package metadata

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/slices"
)

type BlendMode uint8

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendPremultiplied
	BlendAdditive
	BlendMultiplicative
	BlendText
	blendModeCount
)

func (b BlendMode) String() string {
	switch b {
	case BlendOpaque:
		return "opaque"
	case BlendAlpha:
		return "alpha"
	case BlendPremultiplied:
		return "premultiplied"
	case BlendAdditive:
		return "additive"
	case BlendMultiplicative:
		return "multiplicative"
	case BlendText:
		return "text"
	default:
		return fmt.Sprintf("blend(%d)", uint8(b))
	}
}

type DepthMode uint8

const (
	/** @brief Less-or-equal compare, depth writes on. */
	DepthCmpLEQWriteOn DepthMode = iota
	/** @brief Less-or-equal compare, depth writes off. */
	DepthCmpLEQWriteOff
	/** @brief Depth test disabled, depth writes off. */
	DepthCmpAlwaysWriteOff
	/** @brief Depth test disabled, depth writes on. */
	DepthCmpAlwaysWriteOn
	depthModeCount
)

func (d DepthMode) String() string {
	switch d {
	case DepthCmpLEQWriteOn:
		return "leq_write_on"
	case DepthCmpLEQWriteOff:
		return "leq_write_off"
	case DepthCmpAlwaysWriteOff:
		return "always_write_off"
	case DepthCmpAlwaysWriteOn:
		return "always_write_on"
	default:
		return fmt.Sprintf("depth(%d)", uint8(d))
	}
}

// TestsDepth reports whether the mode compares against the depth buffer.
func (d DepthMode) TestsDepth() bool {
	return d == DepthCmpLEQWriteOn || d == DepthCmpLEQWriteOff
}

// WritesDepth reports whether the mode writes the depth buffer.
func (d DepthMode) WritesDepth() bool {
	return d == DepthCmpLEQWriteOn || d == DepthCmpAlwaysWriteOn
}

type StencilMode uint8

const (
	StencilDisabled StencilMode = iota
	/** @brief Front faces increment, back faces decrement, always passes. Used to build shadow volumes. */
	StencilShadowSilhouette
	/** @brief Passes where the stencil value is non-zero. Used to darken shadowed pixels. */
	StencilShadowQuad
	stencilModeCount
)

func (s StencilMode) String() string {
	switch s {
	case StencilDisabled:
		return "disabled"
	case StencilShadowSilhouette:
		return "shadow_silhouette"
	case StencilShadowQuad:
		return "shadow_quad"
	default:
		return fmt.Sprintf("stencil(%d)", uint8(s))
	}
}

type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	cullModeCount
)

func (c CullMode) String() string {
	switch c {
	case CullNone:
		return "none"
	case CullBack:
		return "back"
	default:
		return fmt.Sprintf("cull(%d)", uint8(c))
	}
}

type PrimitiveType uint8

const (
	PrimitiveLines PrimitiveType = iota
	PrimitiveTriangles
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
	primitiveTypeCount
)

func (p PrimitiveType) String() string {
	switch p {
	case PrimitiveLines:
		return "lines"
	case PrimitiveTriangles:
		return "triangles"
	case PrimitiveTriangleStrip:
		return "triangle_strip"
	case PrimitiveTriangleFan:
		return "triangle_fan"
	default:
		return fmt.Sprintf("primitive(%d)", uint8(p))
	}
}

type IndexType uint8

const (
	IndexU16 IndexType = iota
	IndexU32
	indexTypeCount
)

// Size returns the width of one index in bytes.
func (i IndexType) Size() uint32 {
	if i == IndexU32 {
		return 4
	}
	return 2
}

func (i IndexType) String() string {
	switch i {
	case IndexU16:
		return "u16"
	case IndexU32:
		return "u32"
	default:
		return fmt.Sprintf("index(%d)", uint8(i))
	}
}

type VertexAttributeType uint8

const (
	VertexAttributeFloat2 VertexAttributeType = iota
	VertexAttributeFloat3
	VertexAttributeFloat4
	VertexAttributeU8x4Norm
	vertexAttributeTypeCount
)

// Components returns the number of components the shader sees.
func (t VertexAttributeType) Components() int32 {
	switch t {
	case VertexAttributeFloat2:
		return 2
	case VertexAttributeFloat3:
		return 3
	default:
		return 4
	}
}

// Size returns the byte size of one attribute value.
func (t VertexAttributeType) Size() uint32 {
	switch t {
	case VertexAttributeFloat2:
		return 8
	case VertexAttributeFloat3:
		return 12
	case VertexAttributeFloat4:
		return 16
	default:
		return 4
	}
}

// Normalized reports whether integer data is mapped to [0, 1].
func (t VertexAttributeType) Normalized() bool {
	return t == VertexAttributeU8x4Norm
}

func (t VertexAttributeType) String() string {
	switch t {
	case VertexAttributeFloat2:
		return "float2"
	case VertexAttributeFloat3:
		return "float3"
	case VertexAttributeFloat4:
		return "float4"
	case VertexAttributeU8x4Norm:
		return "u8x4_norm"
	default:
		return fmt.Sprintf("attribute(%d)", uint8(t))
	}
}

type SamplerType uint8

const (
	SamplerBilinear SamplerType = iota
	SamplerBilinearRepeat
	SamplerAnisotropic
	SamplerAnisotropicRepeat
	SamplerNearestClamped
	samplerTypeCount
)

// Repeats reports whether texture coordinates wrap.
func (s SamplerType) Repeats() bool {
	return s == SamplerBilinearRepeat || s == SamplerAnisotropicRepeat
}

// Anisotropic reports whether the sampler filters anisotropically across mip levels.
func (s SamplerType) Anisotropic() bool {
	return s == SamplerAnisotropic || s == SamplerAnisotropicRepeat
}

func (s SamplerType) String() string {
	switch s {
	case SamplerBilinear:
		return "bilinear"
	case SamplerBilinearRepeat:
		return "bilinear_repeat"
	case SamplerAnisotropic:
		return "anisotropic"
	case SamplerAnisotropicRepeat:
		return "anisotropic_repeat"
	case SamplerNearestClamped:
		return "nearest_clamped"
	default:
		return fmt.Sprintf("sampler(%d)", uint8(s))
	}
}

// ColorMask selects the color channels a pipeline writes.
type ColorMask uint8

const (
	ColorMaskRed ColorMask = 1 << iota
	ColorMaskGreen
	ColorMaskBlue
	ColorMaskAlpha

	ColorMaskNone ColorMask = 0
	ColorMaskAll            = ColorMaskRed | ColorMaskGreen | ColorMaskBlue | ColorMaskAlpha
)

/**
 * @brief Fixed-function state baked into a pipeline.
 */
type StateDescription struct {
	Blend     BlendMode
	Depth     DepthMode
	ColorMask ColorMask
	// PolygonOffset enables depth bias. The bias values come from SetPolygonOffset.
	PolygonOffset bool
	Stencil       StencilMode
	Cull          CullMode
}

type TextureInput struct {
	Slot    uint32
	Sampler SamplerType
}

type VertexAttribute struct {
	Location uint32
	Type     VertexAttributeType
	Offset   uint32
}

/**
 * @brief Layout of one bound vertex buffer. A zero stride means tightly packed.
 */
type VertexBuffer struct {
	Stride     uint32
	Attributes []VertexAttribute
}

// EffectiveStride returns Stride, or the packed size of the attributes when Stride is zero.
func (v VertexBuffer) EffectiveStride() uint32 {
	if v.Stride != 0 {
		return v.Stride
	}
	var end uint32
	for _, a := range v.Attributes {
		if e := a.Offset + a.Type.Size(); e > end {
			end = e
		}
	}
	return end
}

/**
 * @brief Everything needed to build one pipeline state object.
 */
type PipelineDescription struct {
	State         StateDescription
	Shader        ShaderMode
	Primitive     PrimitiveType
	Index         IndexType
	Textures      []TextureInput
	VertexBuffers []VertexBuffer
}

// Validate checks enum ranges and slot numbering. Texture slots must cover 0..n-1 exactly once.
func (d PipelineDescription) Validate() error {
	s := d.State
	switch {
	case s.Blend >= blendModeCount:
		return fmt.Errorf("%w: blend mode %s", ErrInvalidPipeline, s.Blend)
	case s.Depth >= depthModeCount:
		return fmt.Errorf("%w: depth mode %s", ErrInvalidPipeline, s.Depth)
	case s.Stencil >= stencilModeCount:
		return fmt.Errorf("%w: stencil mode %s", ErrInvalidPipeline, s.Stencil)
	case s.Cull >= cullModeCount:
		return fmt.Errorf("%w: cull mode %s", ErrInvalidPipeline, s.Cull)
	case s.ColorMask&^ColorMaskAll != 0:
		return fmt.Errorf("%w: color mask %#x", ErrInvalidPipeline, uint8(s.ColorMask))
	case d.Primitive >= primitiveTypeCount:
		return fmt.Errorf("%w: primitive %s", ErrInvalidPipeline, d.Primitive)
	case d.Index >= indexTypeCount:
		return fmt.Errorf("%w: index type %s", ErrInvalidPipeline, d.Index)
	}
	if _, err := LookupShader(d.Shader); err != nil {
		return err
	}

	seen := make([]bool, len(d.Textures))
	for _, t := range d.Textures {
		if t.Slot >= uint32(len(d.Textures)) || seen[t.Slot] {
			return fmt.Errorf("%w: texture slot %d", ErrInvalidPipeline, t.Slot)
		}
		if t.Sampler >= samplerTypeCount {
			return fmt.Errorf("%w: sampler %s", ErrInvalidPipeline, t.Sampler)
		}
		seen[t.Slot] = true
	}

	locations := map[uint32]bool{}
	for i, vb := range d.VertexBuffers {
		stride := vb.EffectiveStride()
		for _, a := range vb.Attributes {
			if a.Type >= vertexAttributeTypeCount {
				return fmt.Errorf("%w: %w: attribute type %s", ErrInvalidPipeline, ErrUnsupportedFormat, a.Type)
			}
			if locations[a.Location] {
				return fmt.Errorf("%w: attribute location %d bound twice", ErrInvalidPipeline, a.Location)
			}
			if a.Offset+a.Type.Size() > stride {
				return fmt.Errorf("%w: attribute %d overruns stride %d of buffer %d", ErrInvalidPipeline, a.Location, stride, i)
			}
			locations[a.Location] = true
		}
	}
	return nil
}

// Clone returns a deep copy so callers can adjust a shared description.
func (d PipelineDescription) Clone() PipelineDescription {
	out := d
	out.Textures = slices.Clone(d.Textures)
	out.VertexBuffers = make([]VertexBuffer, len(d.VertexBuffers))
	for i, vb := range d.VertexBuffers {
		out.VertexBuffers[i] = VertexBuffer{Stride: vb.Stride, Attributes: slices.Clone(vb.Attributes)}
	}
	return out
}

const encodingVersion = 1

// Encode returns a canonical byte form of the description. Equal descriptions encode equally.
func (d PipelineDescription) Encode() []byte {
	out := make([]byte, 0, 16+len(d.Textures)*5+len(d.VertexBuffers)*32)
	out = append(out,
		encodingVersion,
		byte(d.State.Blend),
		byte(d.State.Depth),
		byte(d.State.ColorMask),
		boolByte(d.State.PolygonOffset),
		byte(d.State.Stencil),
		byte(d.State.Cull),
		byte(d.Shader),
		byte(d.Primitive),
		byte(d.Index),
	)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(d.Textures)))
	for _, t := range d.Textures {
		out = binary.LittleEndian.AppendUint32(out, t.Slot)
		out = append(out, byte(t.Sampler))
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(d.VertexBuffers)))
	for _, vb := range d.VertexBuffers {
		out = binary.LittleEndian.AppendUint32(out, vb.Stride)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(vb.Attributes)))
		for _, a := range vb.Attributes {
			out = binary.LittleEndian.AppendUint32(out, a.Location)
			out = append(out, byte(a.Type))
			out = binary.LittleEndian.AppendUint32(out, a.Offset)
		}
	}
	return out
}

func (d PipelineDescription) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", d.Shader, d.State.Blend, d.State.Depth, d.State.Stencil, d.State.Cull, d.Primitive)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
