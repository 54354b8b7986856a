package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

// spirvMagic is the first word of every SPIR-V module in host byte order.
const spirvMagic = 0x07230203

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage loads the SPIR-V file name from shaders and wraps it in a module.
func NewShaderStage(context *VulkanContext, shaders metadata.ShaderSource, name string, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	code, err := shaders.SPIRV(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read shader module %s: %w", name, err)
	}
	if len(code) == 0 || code[0] != spirvMagic {
		return nil, fmt.Errorf("%w: %s is not a SPIR-V module", metadata.ErrUnknownShader, name)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	out := &VulkanShaderStage{}
	if err := vulkanError("vkCreateShaderModule", vk.CreateShaderModule(context.LogicalDevice, &createInfo, context.Allocator, &out.Handle)); err != nil {
		return nil, fmt.Errorf("shader module %s: %w", name, err)
	}

	out.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: out.Handle,
		PName:  VulkanSafeString("main"),
	}
	return out, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}
