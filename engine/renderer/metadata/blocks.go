package metadata

import "github.com/go-gl/mathgl/mgl32"

// ConstantBlock is a typed constant block that packs itself for one shader.
type ConstantBlock interface {
	Encode(shader ShaderMode) ([]byte, error)
}

// ModelConstants feeds the component, button and nolight shaders.
type ModelConstants struct {
	ModelView           mgl32.Mat4
	ModelViewProjection mgl32.Mat4
	Normal              mgl32.Mat4
	LightPosition       mgl32.Vec4
	SceneColor          mgl32.Vec4
	Ambient             mgl32.Vec4
	Diffuse             mgl32.Vec4
	Specular            mgl32.Vec4
	FogColor            mgl32.Vec4
	Colour              mgl32.Vec4
	TeamColour          mgl32.Vec4
	Stretch             float32
	TCMask              bool
	FogEnabled          bool
	NormalMap           bool
	SpecularMap         bool
	ECMEffect           bool
	AlphaTest           bool
	GraphicsCycle       float32
	FogEnd              float32
	FogStart            float32
}

func (c ModelConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.ModelView).Mat4(c.ModelViewProjection).Mat4(c.Normal).
		Vec4(c.LightPosition).Vec4(c.SceneColor).Vec4(c.Ambient).Vec4(c.Diffuse).Vec4(c.Specular).
		Vec4(c.FogColor).Vec4(c.Colour).Vec4(c.TeamColour).
		Float(c.Stretch).
		Bool(c.TCMask).Bool(c.FogEnabled).Bool(c.NormalMap).Bool(c.SpecularMap).Bool(c.ECMEffect).Bool(c.AlphaTest).
		Float(c.GraphicsCycle).Float(c.FogEnd).Float(c.FogStart).
		Bytes()
}

type Fog struct {
	Color   mgl32.Vec4
	Enabled bool
	End     float32
	Start   float32
}

type TerrainConstants struct {
	ModelViewProjection mgl32.Mat4
	LightTexture        mgl32.Mat4
	ParamX1, ParamY1    mgl32.Vec4
	ParamX2, ParamY2    mgl32.Vec4
	Fog                 Fog
}

func (c TerrainConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.ModelViewProjection).Mat4(c.LightTexture).
		Vec4(c.ParamX1).Vec4(c.ParamY1).Vec4(c.ParamX2).Vec4(c.ParamY2).
		Vec4(c.Fog.Color).Bool(c.Fog.Enabled).Float(c.Fog.End).Float(c.Fog.Start).
		Bytes()
}

type TerrainDepthConstants struct {
	ModelViewProjection mgl32.Mat4
	ParamX2, ParamY2    mgl32.Vec4
	Fog                 Fog
}

func (c TerrainDepthConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.ModelViewProjection).
		Vec4(c.ParamX2).Vec4(c.ParamY2).
		Vec4(c.Fog.Color).Bool(c.Fog.Enabled).Float(c.Fog.End).Float(c.Fog.Start).
		Bytes()
}

type DecalsConstants struct {
	ModelViewProjection      mgl32.Mat4
	LightTexture             mgl32.Mat4
	ParamXLight, ParamYLight mgl32.Vec4
	Fog                      Fog
}

func (c DecalsConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.ModelViewProjection).Mat4(c.LightTexture).
		Vec4(c.ParamXLight).Vec4(c.ParamYLight).
		Vec4(c.Fog.Color).Bool(c.Fog.Enabled).Float(c.Fog.End).Float(c.Fog.Start).
		Bytes()
}

type WaterConstants struct {
	ModelViewProjection mgl32.Mat4
	Texture1, Texture2  mgl32.Mat4
	ParamX1, ParamY1    mgl32.Vec4
	ParamX2, ParamY2    mgl32.Vec4
	Fog                 Fog
}

func (c WaterConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.ModelViewProjection).Mat4(c.Texture1).Mat4(c.Texture2).
		Vec4(c.ParamX1).Vec4(c.ParamY1).Vec4(c.ParamX2).Vec4(c.ParamY2).
		Vec4(c.Fog.Color).Bool(c.Fog.Enabled).Float(c.Fog.End).Float(c.Fog.Start).
		Bytes()
}

// RectConstants feeds the rect shader.
type RectConstants struct {
	Transformation mgl32.Mat4
	Color          mgl32.Vec4
}

func (c RectConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).Mat4(c.Transformation).Vec4(c.Color).Bytes()
}

// TexturedRectConstants feeds the texrect and text shaders.
type TexturedRectConstants struct {
	Transformation mgl32.Mat4
	Color          mgl32.Vec4
	UVOffset       mgl32.Vec2
	UVScale        mgl32.Vec2
}

func (c TexturedRectConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.Transformation).Vec4(c.Color).Vec2(c.UVOffset).Vec2(c.UVScale).
		Bytes()
}

type GfxColourConstants struct {
	Position mgl32.Mat4
}

func (c GfxColourConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).Mat4(c.Position).Bytes()
}

type GfxTextConstants struct {
	Position mgl32.Mat4
	Color    mgl32.Vec4
}

func (c GfxTextConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).Mat4(c.Position).Vec4(c.Color).Bytes()
}

// GenericColorConstants feeds the generic_color shader.
type GenericColorConstants struct {
	ModelViewProjection mgl32.Mat4
	Color               mgl32.Vec4
}

func (c GenericColorConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).Mat4(c.ModelViewProjection).Vec4(c.Color).Bytes()
}

// LineConstants feeds the line shader. Every 2D block keeps color right after
// the matrix so the fragment stages can be shared.
type LineConstants struct {
	Transformation mgl32.Mat4
	Color          mgl32.Vec4
	From, To       mgl32.Vec2
}

func (c LineConstants) Encode(shader ShaderMode) ([]byte, error) {
	return NewConstantWriter(shader).
		Mat4(c.Transformation).Vec4(c.Color).Vec2(c.From).Vec2(c.To).
		Bytes()
}
