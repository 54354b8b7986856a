package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/frames"
)

// Alignments of the scratch allocations each kind of upload makes.
const (
	bufferUploadAlignment = 1
	vertexStreamAlignment = 16
	constantsAlignment    = 0x100
	// buffer upload sizes are rounded up to this many bytes
	minBufferUploadSize = 4
)

/**
 * @brief Persistently mapped, host-coherent ring that stages every transient upload.
 *
 * Space is handed out by a frames.RingAllocator, so bytes written for a frame
 * stay untouched until the frame ring retires that frame.
 */
type VulkanScratchBuffer struct {
	context *VulkanContext
	Ring    *frames.RingAllocator
	Handle  vk.Buffer
	Memory  vk.DeviceMemory
	mapped  unsafe.Pointer
}

func NewScratchBuffer(context *VulkanContext, size uint32) (*VulkanScratchBuffer, error) {
	s := &VulkanScratchBuffer{
		context: context,
		Ring:    frames.NewRingAllocator(size),
	}
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageUniformBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := vulkanError("vkCreateBuffer", vk.CreateBuffer(context.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	s.Handle = handle

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.LogicalDevice, s.Handle, &reqs)
	memory, err := context.allocateMemory(reqs, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.Memory = memory
	if err := vulkanError("vkBindBufferMemory", vk.BindBufferMemory(context.LogicalDevice, s.Handle, s.Memory, 0)); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := vulkanError("vkMapMemory", vk.MapMemory(context.LogicalDevice, s.Memory, 0, vk.DeviceSize(size), 0, &s.mapped)); err != nil {
		s.Destroy()
		return nil, err
	}
	core.LogDebug("scratch buffer mapped (%d bytes)", size)
	return s, nil
}

// Push copies data into the ring at the given alignment and returns its offset.
func (s *VulkanScratchBuffer) Push(data []byte, alignment uint32) (uint32, error) {
	return s.PushSized(data, uint32(len(data)), alignment)
}

// PushSized claims size bytes, which may exceed len(data), and copies data to
// the start of the claimed range.
func (s *VulkanScratchBuffer) PushSized(data []byte, size, alignment uint32) (uint32, error) {
	if uint32(len(data)) > size {
		return 0, fmt.Errorf("scratch push: %d bytes do not fit a %d byte claim", len(data), size)
	}
	offset, err := s.Ring.Alloc(size, alignment)
	if err != nil {
		return 0, err
	}
	if len(data) > 0 {
		vk.Memcopy(unsafe.Add(s.mapped, offset), data)
	}
	return offset, nil
}

func (s *VulkanScratchBuffer) Destroy() {
	device := s.context.LogicalDevice
	if s.mapped != nil {
		vk.UnmapMemory(device, s.Memory)
		s.mapped = nil
	}
	if s.Handle != nil {
		vk.DestroyBuffer(device, s.Handle, s.context.Allocator)
		s.Handle = nil
	}
	if s.Memory != nil {
		vk.FreeMemory(device, s.Memory, s.context.Allocator)
		s.Memory = nil
	}
}
