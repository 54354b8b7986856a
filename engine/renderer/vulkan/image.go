package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

type VulkanImage struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	View      vk.ImageView
	Width     uint32
	Height    uint32
	MipLevels uint32
	Format    vk.Format
}

type VulkanImageConfig struct {
	Width, Height uint32
	MipLevels     uint32
	Format        vk.Format
	Usage         vk.ImageUsageFlags
	Aspect        vk.ImageAspectFlags
	// Swizzle overrides the view's component mapping. The zero value is identity.
	Swizzle vk.ComponentMapping
}

// NewImage creates a 2D, optimally tiled, device-local image with a view over
// every mip level.
func NewImage(context *VulkanContext, config VulkanImageConfig) (*VulkanImage, error) {
	if config.MipLevels == 0 {
		config.MipLevels = 1
	}
	out := &VulkanImage{
		Width:     config.Width,
		Height:    config.Height,
		MipLevels: config.MipLevels,
		Format:    config.Format,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    config.Format,
		Extent: vk.Extent3D{
			Width:  config.Width,
			Height: config.Height,
			Depth:  1,
		},
		MipLevels:     config.MipLevels,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         config.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var handle vk.Image
	if err := vulkanError("vkCreateImage", vk.CreateImage(context.LogicalDevice, &imageCreateInfo, context.Allocator, &handle)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	out.Handle = handle

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.LogicalDevice, out.Handle, &reqs)
	memory, err := context.allocateMemory(reqs, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.Memory = memory
	if err := vulkanError("vkBindImageMemory", vk.BindImageMemory(context.LogicalDevice, out.Handle, out.Memory, 0)); err != nil {
		out.Destroy(context)
		return nil, err
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:      vk.StructureTypeImageViewCreateInfo,
		Image:      out.Handle,
		ViewType:   vk.ImageViewType2d,
		Format:     config.Format,
		Components: config.Swizzle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     config.Aspect,
			BaseMipLevel:   0,
			LevelCount:     config.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := vulkanError("vkCreateImageView", vk.CreateImageView(context.LogicalDevice, &viewCreateInfo, context.Allocator, &view)); err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.View = view
	return out, nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	if vi.View != nil {
		vk.DestroyImageView(context.LogicalDevice, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.Handle != nil {
		vk.DestroyImage(context.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = nil
	}
	if vi.Memory != nil {
		vk.FreeMemory(context.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
}

// layoutTransition describes one image layout change recorded as a barrier.
type layoutTransition struct {
	OldLayout, NewLayout vk.ImageLayout
	SrcAccess, DstAccess vk.AccessFlags
	SrcStage, DstStage   vk.PipelineStageFlags
	Aspect               vk.ImageAspectFlags
	BaseMip, MipCount    uint32
}

// transitionImage records a pipeline barrier moving image between layouts.
func transitionImage(cmd *VulkanCommandBuffer, image vk.Image, t layoutTransition) {
	if t.MipCount == 0 {
		t.MipCount = 1
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       t.SrcAccess,
		DstAccessMask:       t.DstAccess,
		OldLayout:           t.OldLayout,
		NewLayout:           t.NewLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     t.Aspect,
			BaseMipLevel:   t.BaseMip,
			LevelCount:     t.MipCount,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(cmd.Handle, t.SrcStage, t.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

var (
	presentToColor = layoutTransition{
		OldLayout: vk.ImageLayoutPresentSrc,
		NewLayout: vk.ImageLayoutColorAttachmentOptimal,
		DstAccess: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
	colorToPresent = layoutTransition{
		OldLayout: vk.ImageLayoutColorAttachmentOptimal,
		NewLayout: vk.ImageLayoutPresentSrc,
		SrcAccess: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessMemoryReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
	undefinedToPresent = layoutTransition{
		OldLayout: vk.ImageLayoutUndefined,
		NewLayout: vk.ImageLayoutPresentSrc,
		DstAccess: vk.AccessFlags(vk.AccessMemoryReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
	undefinedToDepth = layoutTransition{
		OldLayout: vk.ImageLayoutUndefined,
		NewLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		DstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit),
	}
)

// uploadTransitions returns the barriers that bracket a copy into the given
// mip level. A level never written starts from Undefined, a sampled one waits
// for fragment reads to finish.
func uploadTransitions(level uint32, current vk.ImageLayout) (before, after layoutTransition) {
	before = layoutTransition{
		OldLayout: vk.ImageLayoutUndefined,
		NewLayout: vk.ImageLayoutTransferDstOptimal,
		DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMip:   level,
		MipCount:  1,
	}
	if current == vk.ImageLayoutShaderReadOnlyOptimal {
		before.OldLayout = current
		before.SrcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		before.SrcStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	}
	after = layoutTransition{
		OldLayout: vk.ImageLayoutTransferDstOptimal,
		NewLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMip:   level,
		MipCount:  1,
	}
	return before, after
}
