package platform

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the glfw window and implements metadata.Window for both backends.
type Platform struct {
	Window  *glfw.Window
	backend metadata.BackendType
}

func New() *Platform {
	return &Platform{
		Window: nil,
	}
}

type windowHint struct {
	hint  glfw.Hint
	value int
}

// windowHints returns the hints for a window that backend can present to.
// The explicit backend owns its surface, so no client API is requested.
func windowHints(backend metadata.BackendType) []windowHint {
	hints := []windowHint{
		{glfw.Visible, glfw.False},
		{glfw.Resizable, glfw.False},
	}
	switch backend {
	case metadata.BackendVulkan:
		hints = append(hints, windowHint{glfw.ClientAPI, glfw.NoAPI})
	default:
		hints = append(hints,
			windowHint{glfw.ClientAPI, glfw.OpenGLAPI},
			windowHint{glfw.ContextVersionMajor, 4},
			windowHint{glfw.ContextVersionMinor, 1},
			windowHint{glfw.OpenGLProfile, glfw.OpenGLCoreProfile},
			windowHint{glfw.OpenGLForwardCompatible, glfw.True},
		)
	}
	return hints
}

func (p *Platform) Startup(applicationName string, x, y, width, height uint32, backend metadata.BackendType) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	if backend == metadata.BackendVulkan && !glfw.VulkanSupported() {
		glfw.Terminate()
		return fmt.Errorf("glfw reports no Vulkan loader on this system")
	}

	glfw.DefaultWindowHints()
	for _, h := range windowHints(backend) {
		glfw.WindowHint(h.hint, h.value)
	}

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create window: %w", err)
	}
	p.Window = window
	p.backend = backend

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetCloseCallback(closeCallback)
	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	core.LogInfo("created a %dx%d window for the %s backend", width, height, backend)

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events. It returns false once the
// window has been asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

func (p *Platform) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func (p *Platform) FramebufferSize() (int, int) {
	return p.Window.GetFramebufferSize()
}

func (p *Platform) SwapBuffers() {
	p.Window.SwapBuffers()
}

func (p *Platform) MakeContextCurrent() {
	p.Window.MakeContextCurrent()
}

func (p *Platform) SetSwapInterval(interval int) {
	glfw.SwapInterval(interval)
}

func (p *Platform) CreateWindowSurface(instance interface{}, allocator unsafe.Pointer) (uintptr, error) {
	return p.Window.CreateWindowSurface(instance, allocator)
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
	}
}

func closeCallback(w *glfw.Window) {
	core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	ctx := core.EventContext{}
	ctx.Data.U32[0] = uint32(width)
	ctx.Data.U32[1] = uint32(height)
	core.EventFire(core.EVENT_CODE_RESIZED, nil, ctx)
}
