package metadata

import "fmt"

/**
 * @brief Pixel layouts accepted by textures and texture uploads.
 */
type PixelFormat uint8

const (
	PixelFormatInvalid PixelFormat = iota
	/** @brief 8 bits per channel, red green blue. */
	PixelFormatRGB8
	/** @brief 8 bits per channel, red green blue alpha. */
	PixelFormatRGBA8
	/** @brief 8 bits per channel, blue green red alpha. */
	PixelFormatBGRA8
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGB8:
		return "rgb8"
	case PixelFormatRGBA8:
		return "rgba8"
	case PixelFormatBGRA8:
		return "bgra8"
	default:
		return fmt.Sprintf("pixel_format(%d)", uint8(f))
	}
}

// BytesPerPixel returns the size of one texel, or 0 for an invalid format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGB8:
		return 3
	case PixelFormatRGBA8, PixelFormatBGRA8:
		return 4
	default:
		return 0
	}
}

type BufferUsage uint8

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageIndex:
		return "index"
	default:
		return fmt.Sprintf("buffer_usage(%d)", uint8(u))
	}
}

/**
 * @brief GPU image storage. Created once by a device, mutated through region uploads.
 */
type Texture interface {
	// Upload copies a width x height region of data, laid out in format, into the given mip level.
	Upload(level, offsetX, offsetY, width, height uint32, format PixelFormat, data []byte) error
	// GenerateMipLevels derives every level below 0 from level 0 where the backend supports it.
	GenerateMipLevels()
	// ID returns the backend object name, or 0 when the backend has none.
	ID() uint32
	Width() uint32
	Height() uint32
	MipLevels() uint32
	Format() PixelFormat
	// Destroy releases the texture. Backends with frames in flight defer the release.
	Destroy()
}

/**
 * @brief GPU-visible storage for vertex or index data.
 */
type Buffer interface {
	// Upload writes data starting at offset bytes into the buffer.
	Upload(offset uint32, data []byte) error
	Size() uint32
	Usage() BufferUsage
	Destroy()
}

// VertexBufferBinding pairs a buffer with the byte offset its first vertex starts at.
type VertexBufferBinding struct {
	Buffer Buffer
	Offset uint32
}

/**
 * @brief A baked, immutable bundle of draw-time configuration plus shader identity.
 */
type PipelineStateObject interface {
	Description() PipelineDescription
	Shader() ShaderMode
	// Label is a unique human readable name used in logs and debug tooling.
	Label() string
}

// TextureSize returns the byte size of a width x height region in format.
func TextureSize(width, height uint32, format PixelFormat) int {
	return int(width) * int(height) * format.BytesPerPixel()
}

// MipLevelSize returns the dimension of level for a base dimension, never below 1.
func MipLevelSize(base, level uint32) uint32 {
	size := base >> level
	if size == 0 {
		return 1
	}
	return size
}

// MaxMipLevels returns the length of a full mip chain for a width x height image.
func MaxMipLevels(width, height uint32) uint32 {
	size := width
	if height > size {
		size = height
	}
	levels := uint32(1)
	for size > 1 {
		size >>= 1
		levels++
	}
	return levels
}
