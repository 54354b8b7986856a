package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-gfx/engine/assets"
	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/platform"
	"github.com/spaghettifunk/anima-gfx/engine/renderer"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-gfx/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every subsystem
	EngineStageStopped
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     atomic.Bool
	isSuspended   bool
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	runtime       *renderer.Runtime
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("a game with an application config is required")
	}
	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     platform.New(),
		assetManager: am,
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}
	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return core.ErrAlreadyInitialized
	}
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.ApplicationConfig
	core.SetLogLevel(cfg.LogLevel)

	if err := core.EventInitialize(); err != nil {
		return err
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	backend, err := metadata.ParseBackend(cfg.Renderer.Backend)
	if err != nil {
		return err
	}
	if err := e.platform.Startup(cfg.Name, cfg.StartPosX, cfg.StartPosY, cfg.StartWidth, cfg.StartHeight, backend); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(cfg.AssetDir); err != nil {
		return err
	}

	rendererConfig := cfg.Renderer
	rendererConfig.AppName = cfg.Name
	shaders := assets.NewShaderLibrary(e.assetManager, rendererConfig.ShaderDir, rendererConfig.SPIRVDir)
	e.runtime = renderer.NewRuntime(rendererConfig, shaders)
	if err := e.runtime.Initialize(e.platform); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(e.runtime.Device(), e.assetManager)
	if err != nil {
		return err
	}
	if err := sm.Initialize(); err != nil {
		return err
	}
	e.systemManager = sm

	e.gameInstance.Device = e.runtime.Device()
	e.gameInstance.SystemManager = sm
	e.gameInstance.AssetManager = e.assetManager

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	width, height := e.platform.FramebufferSize()
	e.width, e.height = uint32(width), uint32(height)
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives frames until the window closes or Stop is called, then shuts
// every subsystem down on the calling thread.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.ErrNotInitialized
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	device := e.runtime.Device()
	var runErr error

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}
		if e.isSuspended {
			e.platform.Sleep(10)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		e.systemManager.Update()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			runErr = fmt.Errorf("game update failed: %w", err)
			break
		}

		// Call the game's render routine.
		if err := e.gameInstance.FnRender(delta); err != nil {
			runErr = fmt.Errorf("game render failed: %w", err)
			break
		}

		flipStart := time.Now()
		device.Flip()
		core.MetricsRecordFlip(time.Since(flipStart))
		core.MetricsUpdate(delta)

		// Update last time
		e.lastTime = currentTime
	}

	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Stop asks Run to return after the current frame. Safe from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

// Shutdown releases every subsystem. Run calls it on exit; call it directly
// only when Initialize failed.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageStopped {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if e.gameInstance.FnShutdown != nil {
		keep(e.gameInstance.FnShutdown())
	}
	if e.systemManager != nil {
		keep(e.systemManager.Shutdown())
	}
	if e.runtime != nil {
		e.runtime.Shutdown()
	}
	keep(e.assetManager.Shutdown())
	if e.platform.Window != nil {
		keep(e.platform.Shutdown())
	}
	core.EventShutdown()

	e.currentStage = EngineStageStopped
	return firstErr
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if code != core.EVENT_CODE_RESIZED {
		return false
	}
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	return false
}
