package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := vulkanError("vkCreateFence", vk.CreateFence(context.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy(context *VulkanContext) {
	if vf.Handle != nil {
		vk.DestroyFence(context.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence signals or timeoutNs elapses. A fence already
// known to be signaled returns at once.
func (vf *VulkanFence) Wait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		return nil
	}
	switch res := vk.WaitForFences(context.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs); res {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vkWaitForFences timed out after %dns", timeoutNs)
		return fmt.Errorf("%w: vkWaitForFences: %s", ErrVulkan, VulkanResultString(res, false))
	default:
		return vulkanError("vkWaitForFences", res)
	}
}

// Reset returns a signaled fence to the unsignaled state.
func (vf *VulkanFence) Reset(context *VulkanContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if err := vulkanError("vkResetFences", vk.ResetFences(context.LogicalDevice, 1, []vk.Fence{vf.Handle})); err != nil {
		return err
	}
	vf.IsSignaled = false
	return nil
}

// Armed marks the fence as handed to a queue submission.
func (vf *VulkanFence) Armed() {
	vf.IsSignaled = false
}
