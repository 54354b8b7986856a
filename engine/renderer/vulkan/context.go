package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

/**
 * @brief Driver objects shared by every part of the explicit device.
 */
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Properties     vk.PhysicalDeviceProperties
	Memory         vk.PhysicalDeviceMemoryProperties

	// QueueFamily supports both graphics and presentation to Surface.
	QueueFamily uint32
	Queue       vk.Queue

	// RGB8Supported is set when R8G8B8Unorm can be sampled with optimal tiling.
	RGB8Supported bool

	Locks *VulkanLockPool
}

func NewVulkanContext() *VulkanContext {
	return &VulkanContext{
		Allocator: nil,
		Locks:     NewVulkanLockPool(),
	}
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// every flag in propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < vc.Memory.MemoryTypeCount; i++ {
		vc.Memory.MemoryTypes[i].Deref()
		if typeFilter&(1<<i) != 0 && vc.Memory.MemoryTypes[i].PropertyFlags&propertyFlags == propertyFlags {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no memory type for filter %#x with properties %#x", ErrVulkan, typeFilter, uint32(propertyFlags))
}

// allocateMemory allocates and returns memory satisfying reqs and propertyFlags.
func (vc *VulkanContext) allocateMemory(reqs vk.MemoryRequirements, propertyFlags vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	reqs.Deref()
	index, err := vc.FindMemoryIndex(reqs.MemoryTypeBits, propertyFlags)
	if err != nil {
		return nil, err
	}
	var memory vk.DeviceMemory
	res := vk.AllocateMemory(vc.LogicalDevice, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: index,
	}, vc.Allocator, &memory)
	if err := vulkanError("vkAllocateMemory", res); err != nil {
		return nil, err
	}
	return memory, nil
}
