package opengl

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

var (
	ErrShaderCompile = errors.New("shader compilation failed")
	ErrProgramLink   = errors.New("program link failed")
)

/**
 * @brief A linked program plus the fixed-function state to push when bound.
 */
type OpenGLPipeline struct {
	desc    metadata.PipelineDescription
	shader  metadata.ShaderConfig
	state   fixedFunctionState
	program uint32
	// uniform locations in constant-layout order, -1 when the linker dropped one
	locations []int32
	label     string
}

func (p *OpenGLPipeline) Description() metadata.PipelineDescription { return p.desc.Clone() }
func (p *OpenGLPipeline) Shader() metadata.ShaderMode               { return p.desc.Shader }
func (p *OpenGLPipeline) Label() string                             { return p.label }

func (d *OpenGLDevice) BuildPipeline(desc metadata.PipelineDescription) (metadata.PipelineStateObject, error) {
	if err := d.requireContext(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	cfg, err := metadata.LookupShader(desc.Shader)
	if err != nil {
		return nil, err
	}
	if len(desc.Textures) > len(cfg.Samplers) {
		return nil, fmt.Errorf("%w: %s samples %d textures, %d requested", metadata.ErrInvalidPipeline, cfg.Name, len(cfg.Samplers), len(desc.Textures))
	}

	program, err := d.buildProgram(cfg)
	if err != nil {
		return nil, err
	}

	p := &OpenGLPipeline{
		desc:      desc.Clone(),
		shader:    cfg,
		state:     translateState(desc.State),
		program:   program,
		locations: make([]int32, len(cfg.Constants.Fields)),
	}
	d.gl.UseProgram(program)
	for i, field := range cfg.Constants.Fields {
		p.locations[i] = d.gl.GetUniformLocation(program, field.Name)
		if p.locations[i] < 0 {
			core.LogDebug("uniform %s of %s is inactive", field.Name, cfg.Name)
		}
	}
	for slot, name := range cfg.Samplers {
		if loc := d.gl.GetUniformLocation(program, name); loc >= 0 {
			d.gl.Uniform1i(loc, int32(slot))
		}
	}
	if d.current != nil {
		d.gl.UseProgram(d.current.program)
	} else {
		d.gl.UseProgram(0)
	}

	d.pipelines = append(d.pipelines, p)
	p.label = fmt.Sprintf("gl/%s/%d", cfg.Name, len(d.pipelines))
	core.LogDebug("built GL pipeline %s (%s)", p.label, desc)
	return p, nil
}

func (d *OpenGLDevice) buildProgram(cfg metadata.ShaderConfig) (uint32, error) {
	vertex, err := d.compileStage(gl.VERTEX_SHADER, cfg.VertexGLSL)
	if err != nil {
		return 0, err
	}
	defer d.gl.DeleteShader(vertex)
	fragment, err := d.compileStage(gl.FRAGMENT_SHADER, cfg.FragmentGLSL)
	if err != nil {
		return 0, err
	}
	defer d.gl.DeleteShader(fragment)

	program := d.gl.CreateProgram()
	d.gl.AttachShader(program, vertex)
	d.gl.AttachShader(program, fragment)
	for location, name := range metadata.AttributeNames {
		d.gl.BindAttribLocation(program, uint32(location), name)
	}
	if ok, log := d.gl.LinkProgram(program); !ok {
		d.gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s: %s", ErrProgramLink, cfg.Name, log)
	}
	return program, nil
}

func (d *OpenGLDevice) compileStage(kind uint32, name string) (uint32, error) {
	source, err := d.shaders.GLSL(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read shader %s: %w", name, err)
	}
	shader := d.gl.CreateShader(kind)
	if ok, log := d.gl.CompileShader(shader, source); !ok {
		d.gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s: %s", ErrShaderCompile, name, log)
	}
	return shader, nil
}

// setConstants decodes a std140 block into one uniform call per field.
func (p *OpenGLPipeline) setConstants(f Functions, data []byte) error {
	if uint32(len(data)) < p.shader.Constants.Size {
		return fmt.Errorf("%w: %d bytes for %s, need %d", metadata.ErrConstantBlockShape, len(data), p.shader.Name, p.shader.Constants.Size)
	}
	for i, field := range p.shader.Constants.Fields {
		loc := p.locations[i]
		if loc < 0 {
			continue
		}
		switch field.Type {
		case metadata.UniformFloat:
			f.Uniform1f(loc, field.Float32s(data)[0])
		case metadata.UniformInt:
			f.Uniform1i(loc, field.Int32(data))
		case metadata.UniformVec2:
			f.Uniform2fv(loc, field.Float32s(data))
		case metadata.UniformVec4:
			f.Uniform4fv(loc, field.Float32s(data))
		case metadata.UniformMat4:
			f.UniformMatrix4fv(loc, field.Float32s(data))
		}
	}
	return nil
}

func (p *OpenGLPipeline) destroy(f Functions) {
	if p.program != 0 {
		f.DeleteProgram(p.program)
		p.program = 0
	}
}
