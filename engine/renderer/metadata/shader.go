package metadata

import "fmt"

type ShaderMode uint8

const (
	ShaderComponent ShaderMode = iota
	ShaderButton
	ShaderNoLight
	ShaderTerrain
	ShaderTerrainDepth
	ShaderDecals
	ShaderWater
	ShaderRect
	ShaderTexRect
	ShaderGfxColour
	ShaderGfxText
	ShaderGenericColor
	ShaderLine
	ShaderText
	shaderModeCount
)

// Attribute locations shared by every shader.
const (
	AttribPosition uint32 = 0
	AttribTexCoord uint32 = 1
	AttribColor    uint32 = 2
	AttribNormal   uint32 = 3
)

// AttributeNames maps the shared attribute locations to the GLSL input names.
var AttributeNames = [...]string{
	AttribPosition: "vertex",
	AttribTexCoord: "vertexTexCoord",
	AttribColor:    "vertexColor",
	AttribNormal:   "vertexNormal",
}

/**
 * @brief Per-shader configuration record, resolved when a pipeline is built.
 */
type ShaderConfig struct {
	Mode ShaderMode
	Name string
	// GLSL source file names for the immediate-mode backend.
	VertexGLSL   string
	FragmentGLSL string
	// Pre-compiled SPIR-V file names for the explicit backend.
	VertexSPIRV   string
	FragmentSPIRV string
	// Samplers lists sampler uniform names in texture slot order.
	Samplers []string
	// Constants is the std140 layout of the shader's constant block.
	Constants ConstantLayout
}

func (s ShaderMode) String() string {
	if s < shaderModeCount {
		return shaderConfigs[s].Name
	}
	return fmt.Sprintf("shader(%d)", uint8(s))
}

// LookupShader returns the configuration record for mode.
func LookupShader(mode ShaderMode) (ShaderConfig, error) {
	if mode >= shaderModeCount {
		return ShaderConfig{}, fmt.Errorf("%w: %d", ErrUnknownShader, uint8(mode))
	}
	return shaderConfigs[mode], nil
}

// ShaderModes returns every known shader identity in declaration order.
func ShaderModes() []ShaderMode {
	modes := make([]ShaderMode, 0, shaderModeCount)
	for m := ShaderMode(0); m < shaderModeCount; m++ {
		modes = append(modes, m)
	}
	return modes
}

var (
	modelFields = []ConstantField{
		{"ModelViewMatrix", UniformMat4},
		{"ModelViewProjectionMatrix", UniformMat4},
		{"NormalMatrix", UniformMat4},
		{"lightPosition", UniformVec4},
		{"sceneColor", UniformVec4},
		{"ambient", UniformVec4},
		{"diffuse", UniformVec4},
		{"specular", UniformVec4},
		{"fogColor", UniformVec4},
		{"colour", UniformVec4},
		{"teamcolour", UniformVec4},
		{"stretch", UniformFloat},
		{"tcmask", UniformInt},
		{"fogEnabled", UniformInt},
		{"normalmap", UniformInt},
		{"specularmap", UniformInt},
		{"ecmEffect", UniformInt},
		{"alphaTest", UniformInt},
		{"graphicsCycle", UniformFloat},
		{"fogEnd", UniformFloat},
		{"fogStart", UniformFloat},
	}
	terrainFields = []ConstantField{
		{"ModelViewProjectionMatrix", UniformMat4},
		{"lightTextureMatrix", UniformMat4},
		{"paramx1", UniformVec4},
		{"paramy1", UniformVec4},
		{"paramx2", UniformVec4},
		{"paramy2", UniformVec4},
		{"fogColor", UniformVec4},
		{"fogEnabled", UniformInt},
		{"fogEnd", UniformFloat},
		{"fogStart", UniformFloat},
	}
	terrainDepthFields = []ConstantField{
		{"ModelViewProjectionMatrix", UniformMat4},
		{"paramx2", UniformVec4},
		{"paramy2", UniformVec4},
		{"fogColor", UniformVec4},
		{"fogEnabled", UniformInt},
		{"fogEnd", UniformFloat},
		{"fogStart", UniformFloat},
	}
	decalsFields = []ConstantField{
		{"ModelViewProjectionMatrix", UniformMat4},
		{"lightTextureMatrix", UniformMat4},
		{"paramxlight", UniformVec4},
		{"paramylight", UniformVec4},
		{"fogColor", UniformVec4},
		{"fogEnabled", UniformInt},
		{"fogEnd", UniformFloat},
		{"fogStart", UniformFloat},
	}
	waterFields = []ConstantField{
		{"ModelViewProjectionMatrix", UniformMat4},
		{"textureMatrix1", UniformMat4},
		{"textureMatrix2", UniformMat4},
		{"paramx1", UniformVec4},
		{"paramy1", UniformVec4},
		{"paramx2", UniformVec4},
		{"paramy2", UniformVec4},
		{"fogColor", UniformVec4},
		{"fogEnabled", UniformInt},
		{"fogEnd", UniformFloat},
		{"fogStart", UniformFloat},
	}
	rectFields = []ConstantField{
		{"transformationMatrix", UniformMat4},
		{"color", UniformVec4},
	}
	texRectFields = []ConstantField{
		{"transformationMatrix", UniformMat4},
		{"color", UniformVec4},
		{"tuv_offset", UniformVec2},
		{"tuv_scale", UniformVec2},
	}
	gfxColourFields = []ConstantField{
		{"posMatrix", UniformMat4},
	}
	gfxTextFields = []ConstantField{
		{"posMatrix", UniformMat4},
		{"color", UniformVec4},
	}
	genericColorFields = []ConstantField{
		{"ModelViewProjectionMatrix", UniformMat4},
		{"color", UniformVec4},
	}
	lineFields = []ConstantField{
		{"mat", UniformMat4},
		{"color", UniformVec4},
		{"from", UniformVec2},
		{"to", UniformVec2},
	}
)

var shaderConfigs = [shaderModeCount]ShaderConfig{
	ShaderComponent: {
		Name:       "component",
		VertexGLSL: "tcmask.vert", FragmentGLSL: "tcmask.frag",
		VertexSPIRV: "tcmask.vert.spv", FragmentSPIRV: "tcmask.frag.spv",
		Samplers:  []string{"Texture", "TextureTcmask", "TextureNormal", "TextureSpecular"},
		Constants: Std140Layout(modelFields),
	},
	ShaderButton: {
		Name:       "button",
		VertexGLSL: "button.vert", FragmentGLSL: "button.frag",
		VertexSPIRV: "button.vert.spv", FragmentSPIRV: "button.frag.spv",
		Samplers:  []string{"Texture", "TextureTcmask", "TextureNormal", "TextureSpecular"},
		Constants: Std140Layout(modelFields),
	},
	ShaderNoLight: {
		Name:       "nolight",
		VertexGLSL: "nolight.vert", FragmentGLSL: "nolight.frag",
		VertexSPIRV: "nolight.vert.spv", FragmentSPIRV: "nolight.frag.spv",
		Samplers:  []string{"Texture", "TextureTcmask", "TextureNormal", "TextureSpecular"},
		Constants: Std140Layout(modelFields),
	},
	ShaderTerrain: {
		Name:       "terrain",
		VertexGLSL: "terrain_water.vert", FragmentGLSL: "terrain.frag",
		VertexSPIRV: "terrain_water.vert.spv", FragmentSPIRV: "terrain.frag.spv",
		Samplers:  []string{"tex", "lightmap_tex"},
		Constants: Std140Layout(terrainFields),
	},
	ShaderTerrainDepth: {
		Name:       "terrain_depth",
		VertexGLSL: "terrain_water.vert", FragmentGLSL: "terraindepth.frag",
		VertexSPIRV: "terrain_water.vert.spv", FragmentSPIRV: "terraindepth.frag.spv",
		Samplers:  []string{"lightmap_tex"},
		Constants: Std140Layout(terrainDepthFields),
	},
	ShaderDecals: {
		Name:       "decals",
		VertexGLSL: "decals.vert", FragmentGLSL: "decals.frag",
		VertexSPIRV: "decals.vert.spv", FragmentSPIRV: "decals.frag.spv",
		Samplers:  []string{"tex", "lightmap_tex"},
		Constants: Std140Layout(decalsFields),
	},
	ShaderWater: {
		Name:       "water",
		VertexGLSL: "terrain_water.vert", FragmentGLSL: "water.frag",
		VertexSPIRV: "terrain_water.vert.spv", FragmentSPIRV: "water.frag.spv",
		Samplers:  []string{"tex1", "tex2"},
		Constants: Std140Layout(waterFields),
	},
	ShaderRect: {
		Name:       "rect",
		VertexGLSL: "rect.vert", FragmentGLSL: "rect.frag",
		VertexSPIRV: "rect.vert.spv", FragmentSPIRV: "rect.frag.spv",
		Constants: Std140Layout(rectFields),
	},
	ShaderTexRect: {
		Name:       "texrect",
		VertexGLSL: "rect.vert", FragmentGLSL: "texturedrect.frag",
		VertexSPIRV: "texturedrect.vert.spv", FragmentSPIRV: "texturedrect.frag.spv",
		Samplers:  []string{"Texture"},
		Constants: Std140Layout(texRectFields),
	},
	ShaderGfxColour: {
		Name:       "gfx_colour",
		VertexGLSL: "gfx.vert", FragmentGLSL: "gfx.frag",
		VertexSPIRV: "gfx.vert.spv", FragmentSPIRV: "gfx.frag.spv",
		Constants: Std140Layout(gfxColourFields),
	},
	ShaderGfxText: {
		Name:       "gfx_text",
		VertexGLSL: "gfx.vert", FragmentGLSL: "texturedrect.frag",
		VertexSPIRV: "gfx.vert.spv", FragmentSPIRV: "texturedrect.frag.spv",
		Samplers:  []string{"Texture"},
		Constants: Std140Layout(gfxTextFields),
	},
	ShaderGenericColor: {
		Name:       "generic_color",
		VertexGLSL: "generic.vert", FragmentGLSL: "rect.frag",
		VertexSPIRV: "generic.vert.spv", FragmentSPIRV: "rect.frag.spv",
		Constants: Std140Layout(genericColorFields),
	},
	ShaderLine: {
		Name:       "line",
		VertexGLSL: "line.vert", FragmentGLSL: "rect.frag",
		VertexSPIRV: "line.vert.spv", FragmentSPIRV: "rect.frag.spv",
		Constants: Std140Layout(lineFields),
	},
	ShaderText: {
		Name:       "text",
		VertexGLSL: "rect.vert", FragmentGLSL: "text.frag",
		VertexSPIRV: "texturedrect.vert.spv", FragmentSPIRV: "text.frag.spv",
		Samplers:  []string{"Texture"},
		Constants: Std140Layout(texRectFields),
	},
}

func init() {
	for i := range shaderConfigs {
		shaderConfigs[i].Mode = ShaderMode(i)
	}
}
