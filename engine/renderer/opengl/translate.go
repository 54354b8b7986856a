package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

// pixelFormat returns the internal format, upload format and component type for f.
func pixelFormat(f metadata.PixelFormat) (int32, uint32, uint32, error) {
	switch f {
	case metadata.PixelFormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case metadata.PixelFormatRGB8:
		// stored as RGBA8, the driver fills alpha with 1
		return gl.RGBA8, gl.RGB, gl.UNSIGNED_BYTE, nil
	case metadata.PixelFormatBGRA8:
		return gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %s", metadata.ErrUnsupportedFormat, f)
	}
}

func bufferTarget(u metadata.BufferUsage) uint32 {
	if u == metadata.BufferUsageIndex {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func primitiveMode(p metadata.PrimitiveType) uint32 {
	switch p {
	case metadata.PrimitiveLines:
		return gl.LINES
	case metadata.PrimitiveTriangleStrip:
		return gl.TRIANGLE_STRIP
	case metadata.PrimitiveTriangleFan:
		return gl.TRIANGLE_FAN
	default:
		return gl.TRIANGLES
	}
}

func indexType(i metadata.IndexType) uint32 {
	if i == metadata.IndexU32 {
		return gl.UNSIGNED_INT
	}
	return gl.UNSIGNED_SHORT
}

func attributeType(t metadata.VertexAttributeType) uint32 {
	if t == metadata.VertexAttributeU8x4Norm {
		return gl.UNSIGNED_BYTE
	}
	return gl.FLOAT
}

type samplerParams struct {
	minFilter  int32
	magFilter  int32
	wrap       int32
	anisotropy float32
}

func samplerState(s metadata.SamplerType) samplerParams {
	p := samplerParams{minFilter: gl.LINEAR, magFilter: gl.LINEAR, wrap: gl.CLAMP_TO_EDGE, anisotropy: 1}
	switch s {
	case metadata.SamplerAnisotropic, metadata.SamplerAnisotropicRepeat:
		p.minFilter = gl.LINEAR_MIPMAP_LINEAR
		p.anisotropy = 16
	case metadata.SamplerNearestClamped:
		p.minFilter = gl.NEAREST
		p.magFilter = gl.NEAREST
	}
	if s.Repeats() {
		p.wrap = gl.REPEAT
	}
	return p
}

func (p samplerParams) apply(f Functions) {
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, p.minFilter)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, p.magFilter)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, p.wrap)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, p.wrap)
	f.TexParameterf(gl.TEXTURE_2D, gl.TEXTURE_MAX_ANISOTROPY, p.anisotropy)
}

type stencilOps struct {
	sfail, dpfail, dppass uint32
}

/**
 * @brief The complete fixed-function state a pipeline sets when bound.
 *
 * Every field is written on every bind so nothing set by one pipeline
 * survives into the next.
 */
type fixedFunctionState struct {
	blend         bool
	blendSrc      uint32
	blendDst      uint32
	depthTest     bool
	depthFunc     uint32
	depthWrite    bool
	colorMask     [4]bool
	polygonOffset bool
	stencil       bool
	stencilFunc   uint32
	stencilRef    int32
	stencilMask   uint32
	stencilFront  stencilOps
	stencilBack   stencilOps
	cull          bool
	cullFace      uint32
	frontFace     uint32
}

func translateState(s metadata.StateDescription) fixedFunctionState {
	st := fixedFunctionState{
		blendSrc:     gl.ONE,
		blendDst:     gl.ZERO,
		stencilFunc:  gl.ALWAYS,
		stencilMask:  ^uint32(0),
		stencilFront: stencilOps{gl.KEEP, gl.KEEP, gl.KEEP},
		stencilBack:  stencilOps{gl.KEEP, gl.KEEP, gl.KEEP},
		cullFace:     gl.BACK,
		frontFace:    gl.CW,
	}

	st.blend = s.Blend != metadata.BlendOpaque
	switch s.Blend {
	case metadata.BlendAlpha:
		st.blendSrc, st.blendDst = gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA
	case metadata.BlendPremultiplied, metadata.BlendText:
		st.blendSrc, st.blendDst = gl.ONE, gl.ONE_MINUS_SRC_ALPHA
	case metadata.BlendAdditive:
		st.blendSrc, st.blendDst = gl.SRC_ALPHA, gl.ONE
	case metadata.BlendMultiplicative:
		st.blendSrc, st.blendDst = gl.ZERO, gl.SRC_COLOR
	}

	// GL only writes depth while the test is enabled, so a writing mode
	// without a compare keeps the test on with ALWAYS.
	st.depthTest = s.Depth.TestsDepth() || s.Depth.WritesDepth()
	st.depthWrite = s.Depth.WritesDepth()
	st.depthFunc = gl.ALWAYS
	if s.Depth.TestsDepth() {
		st.depthFunc = gl.LEQUAL
	}

	st.colorMask = [4]bool{
		s.ColorMask&metadata.ColorMaskRed != 0,
		s.ColorMask&metadata.ColorMaskGreen != 0,
		s.ColorMask&metadata.ColorMaskBlue != 0,
		s.ColorMask&metadata.ColorMaskAlpha != 0,
	}
	st.polygonOffset = s.PolygonOffset

	switch s.Stencil {
	case metadata.StencilShadowSilhouette:
		st.stencil = true
		st.stencilFront.dppass = gl.INCR_WRAP
		st.stencilBack.dppass = gl.DECR_WRAP
	case metadata.StencilShadowQuad:
		st.stencil = true
		st.stencilFunc = gl.LESS
	}

	st.cull = s.Cull == metadata.CullBack
	return st
}

func enable(f Functions, capability uint32, on bool) {
	if on {
		f.Enable(capability)
	} else {
		f.Disable(capability)
	}
}

func (st fixedFunctionState) apply(f Functions) {
	enable(f, gl.BLEND, st.blend)
	f.BlendFunc(st.blendSrc, st.blendDst)

	enable(f, gl.DEPTH_TEST, st.depthTest)
	f.DepthFunc(st.depthFunc)
	f.DepthMask(st.depthWrite)

	f.ColorMask(st.colorMask[0], st.colorMask[1], st.colorMask[2], st.colorMask[3])
	enable(f, gl.POLYGON_OFFSET_FILL, st.polygonOffset)

	enable(f, gl.STENCIL_TEST, st.stencil)
	f.StencilMask(st.stencilMask)
	f.StencilFunc(st.stencilFunc, st.stencilRef, st.stencilMask)
	f.StencilOpSeparate(gl.FRONT, st.stencilFront.sfail, st.stencilFront.dpfail, st.stencilFront.dppass)
	f.StencilOpSeparate(gl.BACK, st.stencilBack.sfail, st.stencilBack.dpfail, st.stencilBack.dppass)

	enable(f, gl.CULL_FACE, st.cull)
	f.CullFace(st.cullFace)
	f.FrontFace(st.frontFace)
}
