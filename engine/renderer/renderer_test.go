package renderer

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

type nullWindow struct{}

func (nullWindow) FramebufferSize() (int, int) { return 640, 480 }
func (nullWindow) SwapBuffers()                {}
func (nullWindow) MakeContextCurrent()         {}
func (nullWindow) SetSwapInterval(int)         {}
func (nullWindow) CreateWindowSurface(interface{}, unsafe.Pointer) (uintptr, error) {
	return 0, errors.New("no surface")
}
func (nullWindow) RequiredInstanceExtensions() []string { return nil }

type stubDevice struct {
	Device
	swapchainErr error
	bound        metadata.Window
	destroyed    int
}

func (d *stubDevice) SetSwapchain(w metadata.Window) error {
	d.bound = w
	return d.swapchainErr
}
func (d *stubDevice) Destroy()             { d.destroyed++ }
func (d *stubDevice) Backend() BackendType { return OpenGL }

func withFactory(t *testing.T, dev *stubDevice) {
	t.Helper()
	prev := factories[OpenGL]
	factories[OpenGL] = func(metadata.RendererConfig, metadata.ShaderSource) (Device, error) { return dev, nil }
	t.Cleanup(func() { factories[OpenGL] = prev })
}

func TestRuntimeLifecycle(t *testing.T) {
	dev := &stubDevice{}
	withFactory(t, dev)

	rt := NewRuntime(metadata.DefaultRendererConfig(), nil)
	assert.Nil(t, rt.Device())
	require.NoError(t, rt.Initialize(nullWindow{}))
	assert.Same(t, dev, rt.Device())
	assert.Equal(t, nullWindow{}, dev.bound)
	assert.Same(t, dev, Current())

	assert.ErrorIs(t, rt.Initialize(nullWindow{}), core.ErrAlreadyInitialized)
	assert.ErrorIs(t, NewRuntime(metadata.DefaultRendererConfig(), nil).Initialize(nullWindow{}), core.ErrAlreadyInitialized)

	rt.Shutdown()
	assert.Equal(t, 1, dev.destroyed)
	assert.Nil(t, rt.Device())
	assert.ErrorIs(t, rt.Initialize(nullWindow{}), core.ErrAlreadyInitialized)
	rt.Shutdown()
	assert.Equal(t, 1, dev.destroyed)
}

func TestRuntimeDestroysDeviceWhenSwapchainFails(t *testing.T) {
	dev := &stubDevice{swapchainErr: errors.New("no surface")}
	withFactory(t, dev)

	rt := NewRuntime(metadata.DefaultRendererConfig(), nil)
	assert.Error(t, rt.Initialize(nullWindow{}))
	assert.Equal(t, 1, dev.destroyed)
	assert.Nil(t, rt.Device())
}

func TestRuntimeRejectsUnknownBackend(t *testing.T) {
	cfg := metadata.DefaultRendererConfig()
	cfg.Backend = "directx"
	assert.Error(t, NewRuntime(cfg, nil).Initialize(nullWindow{}))
}

func TestCurrentBeforeInitializeIsFatal(t *testing.T) {
	code := 0
	prev := core.SetExitFunc(func(c int) { code = c })
	defer core.SetExitFunc(prev)

	assert.Nil(t, Current())
	assert.Equal(t, 1, code)
}
