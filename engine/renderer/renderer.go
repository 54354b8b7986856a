package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/opengl"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/vulkan"
)

type deviceFactory func(cfg metadata.RendererConfig, shaders metadata.ShaderSource) (Device, error)

var factories = map[BackendType]deviceFactory{
	OpenGL: func(cfg metadata.RendererConfig, shaders metadata.ShaderSource) (Device, error) {
		return opengl.NewDevice(cfg, shaders)
	},
	Vulkan: func(cfg metadata.RendererConfig, shaders metadata.ShaderSource) (Device, error) {
		return vulkan.NewDevice(cfg, shaders)
	},
}

/**
 * @brief The graphics runtime: owns the single device selected at startup.
 */
type Runtime struct {
	mu      sync.Mutex
	config  metadata.RendererConfig
	shaders metadata.ShaderSource
	device  Device
	closed  bool
}

var (
	currentMu sync.RWMutex
	current   *Runtime
)

func NewRuntime(cfg metadata.RendererConfig, shaders metadata.ShaderSource) *Runtime {
	return &Runtime{config: cfg, shaders: shaders}
}

// Initialize creates the configured device, binds it to window and makes the
// runtime current. It may only succeed once per process.
func (r *Runtime) Initialize(window metadata.Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil || r.closed {
		return core.ErrAlreadyInitialized
	}
	currentMu.RLock()
	other := current
	currentMu.RUnlock()
	if other != nil {
		return fmt.Errorf("another graphics runtime is active: %w", core.ErrAlreadyInitialized)
	}

	backend, err := metadata.ParseBackend(r.config.Backend)
	if err != nil {
		return err
	}
	factory, ok := factories[backend]
	if !ok {
		return fmt.Errorf("no device for backend %s", backend)
	}
	device, err := factory(r.config, r.shaders)
	if err != nil {
		return fmt.Errorf("failed to create %s device: %w", backend, err)
	}
	if err := device.SetSwapchain(window); err != nil {
		device.Destroy()
		return fmt.Errorf("failed to bind %s device to the window: %w", backend, err)
	}
	r.device = device

	currentMu.Lock()
	current = r
	currentMu.Unlock()

	core.LogInfo("graphics runtime initialized with the %s backend", backend)
	return nil
}

// Device returns the runtime's device, or nil before Initialize.
func (r *Runtime) Device() Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// Shutdown destroys the device. The runtime cannot be initialized again.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return
	}
	r.device.Destroy()
	r.device = nil
	r.closed = true

	currentMu.Lock()
	if current == r {
		current = nil
	}
	currentMu.Unlock()
	core.LogInfo("graphics runtime shut down")
}

// Current returns the device of the initialized runtime. Calling it before
// Initialize is fatal.
func Current() Device {
	currentMu.RLock()
	rt := current
	currentMu.RUnlock()
	if rt == nil {
		core.LogFatal("graphics device requested before the runtime was initialized")
		return nil
	}
	return rt.Device()
}
