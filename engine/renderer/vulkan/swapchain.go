package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

type VulkanSwapchain struct {
	context *VulkanContext

	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	// acquire semaphores rotate, one more than there are images, so one is
	// never reused while a previous acquire may still signal it
	acquireSemaphores []vk.Semaphore
	nextSemaphore     int
	// ImageAvailable is the semaphore the last acquire signals.
	ImageAvailable vk.Semaphore
	ImageIndex     uint32
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

func querySwapchainSupport(context *VulkanContext) (*VulkanSwapchainSupportInfo, error) {
	info := &VulkanSwapchainSupportInfo{}
	if err := vulkanError("vkGetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(context.PhysicalDevice, context.Surface, &info.Capabilities)); err != nil {
		return nil, err
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vulkanError("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(context.PhysicalDevice, context.Surface, &formatCount, nil)); err != nil {
		return nil, err
	}
	info.Formats = make([]vk.SurfaceFormat, formatCount)
	if err := vulkanError("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(context.PhysicalDevice, context.Surface, &formatCount, info.Formats)); err != nil {
		return nil, err
	}
	for i := range info.Formats {
		info.Formats[i].Deref()
	}

	var modeCount uint32
	if err := vulkanError("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(context.PhysicalDevice, context.Surface, &modeCount, nil)); err != nil {
		return nil, err
	}
	info.PresentModes = make([]vk.PresentMode, modeCount)
	if err := vulkanError("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(context.PhysicalDevice, context.Surface, &modeCount, info.PresentModes)); err != nil {
		return nil, err
	}

	if len(info.Formats) == 0 || len(info.PresentModes) == 0 {
		return nil, fmt.Errorf("%w: surface reports %d formats and %d present modes", ErrNoSuitableDevice, len(info.Formats), len(info.PresentModes))
	}
	return info, nil
}

// choosePresentMode returns FIFO when vsync is on. Otherwise it prefers
// mailbox, then immediate, and falls back to FIFO, which is always available.
func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, preferred := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, mode := range modes {
			if mode == preferred {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's extent unless the surface leaves it to the
// window, then clamps the window size to the allowed range.
func chooseExtent(current, minExtent, maxExtent vk.Extent2D, width, height uint32) vk.Extent2D {
	if current.Width != math.MaxUint32 {
		return current
	}
	return vk.Extent2D{
		Width:  clamp(width, minExtent.Width, maxExtent.Width),
		Height: clamp(height, minExtent.Height, maxExtent.Height),
	}
}

// chooseImageCount asks for at least two images within the surface limits.
// A maximum of zero means unbounded.
func chooseImageCount(minCount, maxCount uint32) uint32 {
	count := minCount
	if count < 2 {
		count = 2
	}
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewSwapchain creates the swapchain, a view per image, the depth attachment
// and the acquire semaphores.
func NewSwapchain(context *VulkanContext, width, height uint32, vsync bool) (*VulkanSwapchain, error) {
	support, err := querySwapchainSupport(context)
	if err != nil {
		return nil, err
	}
	caps := support.Capabilities

	swapchain := &VulkanSwapchain{
		context:     context,
		ImageFormat: support.Formats[0],
		PresentMode: choosePresentMode(support.PresentModes, vsync),
		Extent:      chooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, width, height),
	}
	imageCount := chooseImageCount(caps.MinImageCount, caps.MaxImageCount)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
	}

	var handle vk.Swapchain
	if err := vulkanError("vkCreateSwapchain", vk.CreateSwapchain(context.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = handle

	if err := vulkanError("vkGetSwapchainImages", vk.GetSwapchainImages(context.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil)); err != nil {
		swapchain.Destroy()
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if err := vulkanError("vkGetSwapchainImages", vk.GetSwapchainImages(context.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images)); err != nil {
		swapchain.Destroy()
		return nil, err
	}

	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	for i := range swapchain.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if err := vulkanError("vkCreateImageView", vk.CreateImageView(context.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i])); err != nil {
			swapchain.Destroy()
			return nil, err
		}
	}

	swapchain.DepthAttachment, err = NewImage(context, VulkanImageConfig{
		Width:     swapchain.Extent.Width,
		Height:    swapchain.Extent.Height,
		MipLevels: 1,
		Format:    depthFormat,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit),
	})
	if err != nil {
		swapchain.Destroy()
		return nil, fmt.Errorf("depth attachment: %w", err)
	}

	swapchain.acquireSemaphores = make([]vk.Semaphore, swapchain.ImageCount+1)
	for i := range swapchain.acquireSemaphores {
		sem, err := newSemaphore(context)
		if err != nil {
			swapchain.Destroy()
			return nil, err
		}
		swapchain.acquireSemaphores[i] = sem
	}

	core.LogInfo("Swapchain created: %dx%d, %d images, present mode %d", swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount, swapchain.PresentMode)
	return swapchain, nil
}

// AcquireNextImage blocks until the presentation engine hands back an image
// and records which semaphore it will signal.
func (vs *VulkanSwapchain) AcquireNextImage() (uint32, error) {
	sem := vs.acquireSemaphores[vs.nextSemaphore]
	var index uint32
	res := vk.AcquireNextImage(vs.context.LogicalDevice, vs.Handle, vk.MaxUint64, sem, nil, &index)
	if res != vk.Success && res != vk.Suboptimal {
		return 0, vulkanError("vkAcquireNextImage", res)
	}
	vs.nextSemaphore = (vs.nextSemaphore + 1) % len(vs.acquireSemaphores)
	vs.ImageAvailable = sem
	vs.ImageIndex = index
	return index, nil
}

// Present queues the last acquired image once renderComplete signals.
func (vs *VulkanSwapchain) Present(renderComplete vk.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{vs.ImageIndex},
	}
	var res vk.Result
	_ = vs.context.Locks.SafeCall(QueueManagement, func() error {
		res = vk.QueuePresent(vs.context.Queue, &presentInfo)
		return nil
	})
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		core.LogWarn("Swapchain is %s, presentation continues without recreation", VulkanResultString(res, false))
		return nil
	default:
		return vulkanError("vkQueuePresent", res)
	}
}

func (vs *VulkanSwapchain) Destroy() {
	device := vs.context.LogicalDevice
	for _, sem := range vs.acquireSemaphores {
		vk.DestroySemaphore(device, sem, vs.context.Allocator)
	}
	vs.acquireSemaphores = nil
	vs.ImageAvailable = nil

	if vs.DepthAttachment != nil {
		vs.DepthAttachment.Destroy(vs.context)
		vs.DepthAttachment = nil
	}
	// Images belong to the swapchain and go with it.
	for _, view := range vs.Views {
		if view != nil {
			vk.DestroyImageView(device, view, vs.context.Allocator)
		}
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != nil {
		vk.DestroySwapchain(device, vs.Handle, vs.context.Allocator)
		vs.Handle = nil
	}
}

func newSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	var sem vk.Semaphore
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if err := vulkanError("vkCreateSemaphore", vk.CreateSemaphore(context.LogicalDevice, &info, context.Allocator, &sem)); err != nil {
		return nil, err
	}
	return sem, nil
}
