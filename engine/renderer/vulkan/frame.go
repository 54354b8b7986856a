package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

/**
 * @brief Per-swapchain-image resources recycled each time the image comes around.
 *
 * Copies recorded into CopyCmd run before DrawCmd in the same submission. Flip
 * closes CopyCmd with a transfer to vertex input barrier so buffer uploads made
 * while recording a frame are visible to that frame's draws.
 */
type VulkanFrame struct {
	context *VulkanContext

	CommandPool    vk.CommandPool
	DrawCmd        *VulkanCommandBuffer
	CopyCmd        *VulkanCommandBuffer
	DescriptorPool vk.DescriptorPool
	Fence          *VulkanFence
	RenderFinished vk.Semaphore
}

func NewFrame(context *VulkanContext) (*VulkanFrame, error) {
	f := &VulkanFrame{context: context}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: context.QueueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vulkanError("vkCreateCommandPool", vk.CreateCommandPool(context.LogicalDevice, &poolCreateInfo, context.Allocator, &pool)); err != nil {
		return nil, err
	}
	f.CommandPool = pool

	var err error
	if f.DrawCmd, err = NewVulkanCommandBuffer(context, f.CommandPool); err != nil {
		f.Destroy()
		return nil, err
	}
	if f.CopyCmd, err = NewVulkanCommandBuffer(context, f.CommandPool); err != nil {
		f.Destroy()
		return nil, err
	}
	if f.DescriptorPool, err = newFrameDescriptorPool(context); err != nil {
		f.Destroy()
		return nil, err
	}
	if f.Fence, err = NewFence(context, true); err != nil {
		f.Destroy()
		return nil, err
	}
	if f.RenderFinished, err = newSemaphore(context); err != nil {
		f.Destroy()
		return nil, err
	}
	return f, nil
}

func (f *VulkanFrame) WaitFence() error {
	return f.Fence.Wait(f.context, math.MaxUint64)
}

func (f *VulkanFrame) ResetFence() error {
	return f.Fence.Reset(f.context)
}

// ResetPools recycles every descriptor set and command buffer of the frame.
func (f *VulkanFrame) ResetPools() error {
	if err := vulkanError("vkResetDescriptorPool", vk.ResetDescriptorPool(f.context.LogicalDevice, f.DescriptorPool, 0)); err != nil {
		return err
	}
	if err := vulkanError("vkResetCommandPool", vk.ResetCommandPool(f.context.LogicalDevice, f.CommandPool, 0)); err != nil {
		return err
	}
	f.DrawCmd.Reset()
	f.CopyCmd.Reset()
	return nil
}

// Submit sends the copy and draw buffers, waiting for imageAvailable before
// any stage runs and signaling RenderFinished and the fence when done.
func (f *VulkanFrame) Submit(imageAvailable vk.Semaphore) error {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)},
		CommandBufferCount:   2,
		PCommandBuffers:      []vk.CommandBuffer{f.CopyCmd.Handle, f.DrawCmd.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.RenderFinished},
	}
	err := f.context.Locks.SafeCall(QueueManagement, func() error {
		return vulkanError("vkQueueSubmit", vk.QueueSubmit(f.context.Queue, 1, []vk.SubmitInfo{submitInfo}, f.Fence.Handle))
	})
	if err != nil {
		return err
	}
	f.Fence.Armed()
	f.CopyCmd.UpdateSubmitted()
	f.DrawCmd.UpdateSubmitted()
	return nil
}

func (f *VulkanFrame) Destroy() {
	device := f.context.LogicalDevice
	if f.RenderFinished != nil {
		vk.DestroySemaphore(device, f.RenderFinished, f.context.Allocator)
		f.RenderFinished = nil
	}
	if f.Fence != nil {
		f.Fence.Destroy(f.context)
		f.Fence = nil
	}
	if f.DescriptorPool != nil {
		vk.DestroyDescriptorPool(device, f.DescriptorPool, f.context.Allocator)
		f.DescriptorPool = nil
	}
	if f.CommandPool != nil {
		// Destroying the pool frees its command buffers.
		vk.DestroyCommandPool(device, f.CommandPool, f.context.Allocator)
		f.CommandPool = nil
	}
	f.DrawCmd = nil
	f.CopyCmd = nil
	core.LogDebug("frame resources destroyed")
}
