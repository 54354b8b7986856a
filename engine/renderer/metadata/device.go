package metadata

import (
	"fmt"
	"strings"
	"unsafe"
)

// BackendType is the closed set of device implementations.
type BackendType uint8

const (
	BackendOpenGL BackendType = iota
	BackendVulkan
)

func (b BackendType) String() string {
	switch b {
	case BackendOpenGL:
		return "opengl"
	case BackendVulkan:
		return "vulkan"
	default:
		return fmt.Sprintf("backend(%d)", uint8(b))
	}
}

// ParseBackend maps a config value to a backend, ignoring case.
func ParseBackend(name string) (BackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "opengl", "gl", "":
		return BackendOpenGL, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	default:
		return 0, fmt.Errorf("unknown renderer backend %q", name)
	}
}

/**
 * @brief The presentation surface a device binds to in SetSwapchain.
 */
type Window interface {
	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)
	// SwapBuffers presents the back buffer of a GL context.
	SwapBuffers()
	// MakeContextCurrent binds the window's GL context to the calling thread.
	MakeContextCurrent()
	// SetSwapInterval sets the GL vsync interval.
	SetSwapInterval(interval int)
	// CreateWindowSurface creates a Vulkan surface for instance and returns its raw handle.
	CreateWindowSurface(instance interface{}, allocator unsafe.Pointer) (uintptr, error)
	// RequiredInstanceExtensions lists the Vulkan instance extensions presentation needs.
	RequiredInstanceExtensions() []string
}

const (
	DefaultScratchBufferSize uint32 = 128 * 1024 * 1024
	DefaultShaderDir                = "assets/shaders/gl"
	DefaultSPIRVDir                 = "assets/shaders/vk/spirv"
)

/**
 * @brief Device-level settings read from the application config.
 */
type RendererConfig struct {
	// Backend is "opengl" or "vulkan".
	Backend string `toml:"backend"`
	// ScratchBufferSize is the byte size of the explicit backend's upload ring.
	ScratchBufferSize uint32 `toml:"scratch_buffer_size"`
	// Validation turns on debug layers and the driver debug callback.
	Validation bool   `toml:"validation"`
	VSync      bool   `toml:"vsync"`
	ShaderDir  string `toml:"shader_dir"`
	SPIRVDir   string `toml:"spirv_dir"`
	AppName    string `toml:"-"`
}

func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Backend:           "opengl",
		ScratchBufferSize: DefaultScratchBufferSize,
		VSync:             true,
		ShaderDir:         DefaultShaderDir,
		SPIRVDir:          DefaultSPIRVDir,
	}
}

// ShaderSource supplies shader code to a backend by file name.
type ShaderSource interface {
	// GLSL returns the source text of a GLSL stage.
	GLSL(name string) (string, error)
	// SPIRV returns the words of a compiled SPIR-V stage.
	SPIRV(name string) ([]uint32, error)
}
