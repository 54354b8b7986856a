package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/frames"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

type VulkanTexture struct {
	device *VulkanDevice
	image  *VulkanImage
	format metadata.PixelFormat
	// storage format and its texel size, which may be wider than format
	vkFormat vk.Format
	texel    int
	// layout of each mip level as of the last recorded upload
	layouts []vk.ImageLayout
}

// storageFormat maps a pixel format to the image format that stores it. RGB8
// is widened to RGBA8 when the device cannot sample three-channel images.
func storageFormat(format metadata.PixelFormat, rgb8Supported bool) (vk.Format, int, error) {
	switch format {
	case metadata.PixelFormatRGB8:
		if rgb8Supported {
			return vk.FormatR8g8b8Unorm, 3, nil
		}
		return vk.FormatR8g8b8a8Unorm, 4, nil
	case metadata.PixelFormatRGBA8:
		return vk.FormatR8g8b8a8Unorm, 4, nil
	case metadata.PixelFormatBGRA8:
		return vk.FormatB8g8r8a8Unorm, 4, nil
	default:
		return vk.FormatUndefined, 0, fmt.Errorf("%w: %s", metadata.ErrUnsupportedFormat, format)
	}
}

// packTexels converts count texels of srcSize bytes into texels of dstSize
// bytes. Channels are copied in order and missing ones are filled with 255.
func packTexels(data []byte, count, srcSize, dstSize int) []byte {
	if srcSize == dstSize {
		return data[:count*srcSize]
	}
	out := make([]byte, count*dstSize)
	for i := 0; i < count; i++ {
		src := data[i*srcSize : (i+1)*srcSize]
		dst := out[i*dstSize : (i+1)*dstSize]
		n := copy(dst, src)
		for j := n; j < dstSize; j++ {
			dst[j] = 255
		}
	}
	return out
}

func (d *VulkanDevice) CreateTexture(mipLevels, width, height uint32, format metadata.PixelFormat) (metadata.Texture, error) {
	if err := d.requireSwapchain(); err != nil {
		return nil, err
	}
	return d.newTexture(mipLevels, width, height, format, vk.ComponentMapping{})
}

func (d *VulkanDevice) newTexture(mipLevels, width, height uint32, format metadata.PixelFormat, swizzle vk.ComponentMapping) (*VulkanTexture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d texture", metadata.ErrInvalidUpload, width, height)
	}
	if mipLevels == 0 {
		mipLevels = 1
	}
	if limit := metadata.MaxMipLevels(width, height); mipLevels > limit {
		return nil, fmt.Errorf("%w: %d mip levels for %dx%d, at most %d", metadata.ErrInvalidUpload, mipLevels, width, height, limit)
	}
	vkFormat, texel, err := storageFormat(format, d.context.RGB8Supported)
	if err != nil {
		return nil, err
	}
	image, err := NewImage(d.context, VulkanImageConfig{
		Width:     width,
		Height:    height,
		MipLevels: mipLevels,
		Format:    vkFormat,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
		Swizzle:   swizzle,
	})
	if err != nil {
		return nil, err
	}
	t := &VulkanTexture{
		device:   d,
		image:    image,
		format:   format,
		vkFormat: vkFormat,
		texel:    texel,
		layouts:  make([]vk.ImageLayout, mipLevels),
	}
	for i := range t.layouts {
		t.layouts[i] = vk.ImageLayoutUndefined
	}
	core.LogDebug("created Vulkan texture %dx%d %s, %d mips", width, height, format, mipLevels)
	return t, nil
}

// Upload stages the region in the scratch ring and records the copy, with the
// layout transitions around it, into the current frame's copy commands.
func (t *VulkanTexture) Upload(level, offsetX, offsetY, width, height uint32, format metadata.PixelFormat, data []byte) error {
	if t.image == nil {
		return fmt.Errorf("%w: upload to a destroyed texture", metadata.ErrInvalidUpload)
	}
	if level >= t.image.MipLevels {
		return fmt.Errorf("%w: level %d of a %d level texture", metadata.ErrInvalidUpload, level, t.image.MipLevels)
	}
	levelW, levelH := metadata.MipLevelSize(t.image.Width, level), metadata.MipLevelSize(t.image.Height, level)
	if uint64(offsetX)+uint64(width) > uint64(levelW) || uint64(offsetY)+uint64(height) > uint64(levelH) {
		return fmt.Errorf("%w: region %dx%d at (%d,%d) outside level %d (%dx%d)", metadata.ErrInvalidUpload, width, height, offsetX, offsetY, level, levelW, levelH)
	}
	srcSize := format.BytesPerPixel()
	if srcSize == 0 {
		return fmt.Errorf("%w: upload in %s", metadata.ErrUnsupportedFormat, format)
	}
	if need := metadata.TextureSize(width, height, format); len(data) < need {
		return fmt.Errorf("%w: %d bytes for a %dx%d %s region, need %d", metadata.ErrInvalidUpload, len(data), width, height, format, need)
	}
	if width == 0 || height == 0 {
		return nil
	}

	packed := packTexels(data, int(width*height), srcSize, t.texel)
	src, err := t.device.scratch.Push(packed, uint32(4*t.texel))
	if err != nil {
		return fmt.Errorf("texture upload: %w", err)
	}

	cmd := t.device.frame().CopyCmd
	before, after := uploadTransitions(level, t.layouts[level])
	transitionImage(cmd, t.image.Handle, before)
	vk.CmdCopyBufferToImage(cmd.Handle, t.device.scratch.Handle, t.image.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		BufferOffset:      vk.DeviceSize(src),
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       level,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: int32(offsetX), Y: int32(offsetY), Z: 0},
		ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
	}})
	transitionImage(cmd, t.image.Handle, after)
	t.layouts[level] = vk.ImageLayoutShaderReadOnlyOptimal
	return nil
}

// GenerateMipLevels does nothing. Callers upload every level themselves.
func (t *VulkanTexture) GenerateMipLevels() {}

func (t *VulkanTexture) ID() uint32                   { return 0 }
func (t *VulkanTexture) Width() uint32                { return t.image.Width }
func (t *VulkanTexture) Height() uint32               { return t.image.Height }
func (t *VulkanTexture) MipLevels() uint32            { return t.image.MipLevels }
func (t *VulkanTexture) Format() metadata.PixelFormat { return t.format }

// Destroy releases the view, image and memory once in-flight frames are done with them.
func (t *VulkanTexture) Destroy() {
	if t.image == nil || t.image.Handle == nil {
		return
	}
	ctx := t.device.context
	view, handle, memory := t.image.View, t.image.Handle, t.image.Memory
	t.device.ring.Defer(frames.KindImageView, func() {
		vk.DestroyImageView(ctx.LogicalDevice, view, ctx.Allocator)
	})
	t.device.ring.Defer(frames.KindImage, func() {
		vk.DestroyImage(ctx.LogicalDevice, handle, ctx.Allocator)
	})
	t.device.ring.Defer(frames.KindMemory, func() {
		vk.FreeMemory(ctx.LogicalDevice, memory, ctx.Allocator)
	})
	t.image.View, t.image.Handle, t.image.Memory = nil, nil, nil
}
