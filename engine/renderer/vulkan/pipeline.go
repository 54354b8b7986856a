package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline, its layout and the description it was baked from.
 */
type VulkanPipeline struct {
	desc   metadata.PipelineDescription
	shader metadata.ShaderConfig
	label  string

	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief Set 0 holds the constants, set 1 the textures. */
	PipelineLayout vk.PipelineLayout
	/** @brief One combined image sampler per texture slot with immutable samplers. */
	TexturesLayout vk.DescriptorSetLayout
}

func (p *VulkanPipeline) Description() metadata.PipelineDescription { return p.desc.Clone() }
func (p *VulkanPipeline) Shader() metadata.ShaderMode               { return p.desc.Shader }
func (p *VulkanPipeline) Label() string                             { return p.label }

// BuildPipeline bakes every piece of desc into a graphics pipeline. Viewport,
// scissor and depth bias stay dynamic.
func (d *VulkanDevice) BuildPipeline(desc metadata.PipelineDescription) (metadata.PipelineStateObject, error) {
	if err := d.requireSwapchain(); err != nil {
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

	ctx := d.context
	p := &VulkanPipeline{desc: desc.Clone(), shader: cfg}

	vertex, err := NewShaderStage(ctx, d.shaders, cfg.VertexSPIRV, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	defer vertex.Destroy(ctx)
	fragment, err := NewShaderStage(ctx, d.shaders, cfg.FragmentSPIRV, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, err
	}
	defer fragment.Destroy(ctx)

	samplers := make([]vk.Sampler, len(desc.Textures))
	for _, t := range desc.Textures {
		samplers[t.Slot] = d.samplers[t.Sampler]
	}
	if p.TexturesLayout, err = newTexturesLayout(ctx, samplers); err != nil {
		return nil, err
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 2,
		PSetLayouts:    []vk.DescriptorSetLayout{d.constantsLayout, p.TexturesLayout},
	}
	if err := ctx.Locks.SafeCall(PipelineManagement, func() error {
		var layout vk.PipelineLayout
		if err := vulkanError("vkCreatePipelineLayout", vk.CreatePipelineLayout(ctx.LogicalDevice, &pipelineLayoutCreateInfo, ctx.Allocator, &layout)); err != nil {
			return err
		}
		p.PipelineLayout = layout
		return nil
	}); err != nil {
		p.destroy(ctx)
		return nil, err
	}

	bindings, attributes := vertexInput(desc.VertexBuffers)
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               primitiveTopology(desc.Primitive),
		PrimitiveRestartEnable: vk.False,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := rasterizationState(desc.State)
	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}
	depthStencil := depthStencilState(desc.State.Depth, desc.State.Stencil)
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment(desc.State.Blend, desc.State.ColorMask)},
	}
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateScissor,
		vk.DynamicStateViewport,
		vk.DynamicStateDepthBias,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	stages := []vk.PipelineShaderStageCreateInfo{vertex.ShaderStageCreateInfo, fragment.ShaderStageCreateInfo}
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              p.PipelineLayout,
		RenderPass:          d.renderpass.Handle,
		Subpass:             0,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := ctx.Locks.SafeCall(PipelineManagement, func() error {
		return vulkanError("vkCreateGraphicsPipelines", vk.CreateGraphicsPipelines(ctx.LogicalDevice, nil, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, ctx.Allocator, pipelines))
	}); err != nil {
		p.destroy(ctx)
		return nil, err
	}
	p.Handle = pipelines[0]

	d.pipelines = append(d.pipelines, p)
	p.label = fmt.Sprintf("vk/%s/%d", cfg.Name, len(d.pipelines))
	core.LogDebug("built Vulkan pipeline %s (%s)", p.label, desc)
	return p, nil
}

func (p *VulkanPipeline) destroy(context *VulkanContext) {
	_ = context.Locks.SafeCall(PipelineManagement, func() error {
		if p.Handle != nil {
			vk.DestroyPipeline(context.LogicalDevice, p.Handle, context.Allocator)
			p.Handle = nil
		}
		if p.PipelineLayout != nil {
			vk.DestroyPipelineLayout(context.LogicalDevice, p.PipelineLayout, context.Allocator)
			p.PipelineLayout = nil
		}
		return nil
	})
	if p.TexturesLayout != nil {
		vk.DestroyDescriptorSetLayout(context.LogicalDevice, p.TexturesLayout, context.Allocator)
		p.TexturesLayout = nil
	}
}
