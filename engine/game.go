package engine

import (
	"github.com/spaghettifunk/anima-gfx/engine/assets"
	"github.com/spaghettifunk/anima-gfx/engine/renderer"
	"github.com/spaghettifunk/anima-gfx/engine/systems"
)

// Game is the application driven by the engine. The engine fills in Device,
// SystemManager and AssetManager before FnInitialize runs.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Device            renderer.Device
	SystemManager     *systems.SystemManager
	AssetManager      *assets.AssetManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render records the frame's draws. The engine flips afterwards.
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
