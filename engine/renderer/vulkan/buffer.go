package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/frames"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

// VulkanBuffer is device-local vertex or index storage filled through the scratch ring.
type VulkanBuffer struct {
	device *VulkanDevice
	Handle vk.Buffer
	Memory vk.DeviceMemory
	usage  metadata.BufferUsage
	size   uint32
}

func (d *VulkanDevice) CreateBuffer(usage metadata.BufferUsage, size uint32) (metadata.Buffer, error) {
	if err := d.requireSwapchain(); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-sized %s buffer", metadata.ErrInvalidUpload, usage)
	}
	ctx := d.context
	b := &VulkanBuffer{device: d, usage: usage, size: size}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit | vk.BufferUsageIndexBufferBit | vk.BufferUsageTransferDstBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := vulkanError("vkCreateBuffer", vk.CreateBuffer(ctx.LogicalDevice, &bufferCreateInfo, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	b.Handle = handle

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ctx.LogicalDevice, b.Handle, &reqs)
	memory, err := ctx.allocateMemory(reqs, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyBuffer(ctx.LogicalDevice, b.Handle, ctx.Allocator)
		return nil, err
	}
	b.Memory = memory
	if err := vulkanError("vkBindBufferMemory", vk.BindBufferMemory(ctx.LogicalDevice, b.Handle, b.Memory, 0)); err != nil {
		vk.DestroyBuffer(ctx.LogicalDevice, b.Handle, ctx.Allocator)
		vk.FreeMemory(ctx.LogicalDevice, b.Memory, ctx.Allocator)
		return nil, err
	}
	core.LogDebug("created Vulkan %s buffer (%d bytes)", usage, size)
	return b, nil
}

// Upload stages data in the scratch ring and records a copy into the current
// frame's copy commands, which run ahead of its draws.
func (b *VulkanBuffer) Upload(offset uint32, data []byte) error {
	if b.Handle == nil {
		return fmt.Errorf("%w: upload to a destroyed buffer", metadata.ErrInvalidUpload)
	}
	if uint64(offset)+uint64(len(data)) > uint64(b.size) {
		return fmt.Errorf("%w: %d bytes at offset %d overrun a %d byte buffer", metadata.ErrInvalidUpload, len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	claim := uint32(len(data))
	if claim < minBufferUploadSize {
		claim = minBufferUploadSize
	}
	src, err := b.device.scratch.PushSized(data, claim, bufferUploadAlignment)
	if err != nil {
		return fmt.Errorf("buffer upload: %w", err)
	}
	vk.CmdCopyBuffer(b.device.frame().CopyCmd.Handle, b.device.scratch.Handle, b.Handle, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(src),
		DstOffset: vk.DeviceSize(offset),
		Size:      vk.DeviceSize(len(data)),
	}})
	return nil
}

// bufferUploadBarrier makes the frame's buffer copies visible to vertex and
// index fetches of the draw commands submitted after them.
func bufferUploadBarrier() vk.MemoryBarrier {
	return vk.MemoryBarrier{
		SType:         vk.StructureTypeMemoryBarrier,
		SrcAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask: vk.AccessFlags(vk.AccessVertexAttributeReadBit | vk.AccessIndexReadBit),
	}
}

func recordBufferUploadBarrier(cmd *VulkanCommandBuffer) {
	vk.CmdPipelineBarrier(cmd.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		0, 1, []vk.MemoryBarrier{bufferUploadBarrier()}, 0, nil, 0, nil)
}

func (b *VulkanBuffer) Size() uint32                { return b.size }
func (b *VulkanBuffer) Usage() metadata.BufferUsage { return b.usage }

// Destroy releases the buffer once every frame that may use it has finished.
func (b *VulkanBuffer) Destroy() {
	if b.Handle == nil {
		return
	}
	ctx := b.device.context
	handle, memory := b.Handle, b.Memory
	b.device.ring.Defer(frames.KindBuffer, func() {
		vk.DestroyBuffer(ctx.LogicalDevice, handle, ctx.Allocator)
	})
	b.device.ring.Defer(frames.KindMemory, func() {
		vk.FreeMemory(ctx.LogicalDevice, memory, ctx.Allocator)
	})
	b.Handle = nil
	b.Memory = nil
}
