package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Descriptor capacity of each frame's pool. Pools are reset wholesale when
// their frame slot is reused, so this bounds descriptors written per frame.
const (
	frameDescriptorSets     = 10000
	frameCombinedSamplers   = 10000
	frameUniformDescriptors = 10000
)

// Descriptor set indices in every pipeline layout.
const (
	constantsSet uint32 = 0
	texturesSet  uint32 = 1
)

// newConstantsLayout creates the layout shared by every pipeline: one uniform
// buffer at binding 0 visible to all graphics stages.
func newConstantsLayout(context *VulkanContext) (vk.DescriptorSetLayout, error) {
	return newSetLayout(context, []vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageAllGraphics),
	}})
}

// newTexturesLayout creates one combined image sampler binding per slot, each
// with its sampler baked in as immutable.
func newTexturesLayout(context *VulkanContext, samplers []vk.Sampler) (vk.DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(samplers))
	for slot, sampler := range samplers {
		bindings[slot] = vk.DescriptorSetLayoutBinding{
			Binding:            uint32(slot),
			DescriptorType:     vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount:    1,
			StageFlags:         vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			PImmutableSamplers: []vk.Sampler{sampler},
		}
	}
	return newSetLayout(context, bindings)
}

func newSetLayout(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vulkanError("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(context.LogicalDevice, &info, context.Allocator, &layout)); err != nil {
		return nil, err
	}
	return layout, nil
}

func newFrameDescriptorPool(context *VulkanContext) (vk.DescriptorPool, error) {
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       frameDescriptorSets,
		PoolSizeCount: 2,
		PPoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: frameCombinedSamplers},
			{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: frameUniformDescriptors},
		},
	}
	var pool vk.DescriptorPool
	if err := vulkanError("vkCreateDescriptorPool", vk.CreateDescriptorPool(context.LogicalDevice, &info, context.Allocator, &pool)); err != nil {
		return nil, err
	}
	return pool, nil
}

func allocateDescriptorSet(context *VulkanContext, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if err := vulkanError("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(context.LogicalDevice, &info, &set)); err != nil {
		return nil, err
	}
	return set, nil
}

func uniformWrite(set vk.DescriptorSet, buffer vk.Buffer, offset, size uint32) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer,
			Offset: vk.DeviceSize(offset),
			Range:  vk.DeviceSize(size),
		}},
	}
}

func imageWrite(set vk.DescriptorSet, binding uint32, view vk.ImageView) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
}
