package systems

import (
	"github.com/spaghettifunk/anima-gfx/engine/assets"
	"github.com/spaghettifunk/anima-gfx/engine/renderer"
)

type SystemManager struct {
	JobSystem     *JobSystem
	TextureSystem *TextureSystem
	PipelineCache *PipelineCache
}

func NewSystemManager(device renderer.Device, am *assets.AssetManager) (*SystemManager, error) {
	js, err := NewJobSystem(2, 64)
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(TextureSystemConfig{
		MaxTextureCount: 1024,
		Directory:       "textures",
	}, device, js, am)
	if err != nil {
		_ = js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		JobSystem:     js,
		TextureSystem: ts,
		PipelineCache: NewPipelineCache(device),
	}, nil
}

func (sm *SystemManager) Initialize() error {
	return sm.TextureSystem.Initialize()
}

// Update delivers finished background jobs. Call once per frame on the engine thread.
func (sm *SystemManager) Update() {
	sm.JobSystem.Update()
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	sm.PipelineCache.Destroy()
	return sm.TextureSystem.Shutdown()
}
