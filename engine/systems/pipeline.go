package systems

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

// PipelineBuilder is the part of a device the pipeline cache needs.
type PipelineBuilder interface {
	BuildPipeline(desc metadata.PipelineDescription) (metadata.PipelineStateObject, error)
}

type cachedPipeline struct {
	id  uuid.UUID
	pso metadata.PipelineStateObject
}

// PipelineCache builds each distinct description once. Entries live until
// Destroy; the device releases the pipelines themselves.
type PipelineCache struct {
	builder PipelineBuilder

	mu      sync.Mutex
	entries map[string]cachedPipeline
}

func NewPipelineCache(builder PipelineBuilder) *PipelineCache {
	return &PipelineCache{
		builder: builder,
		entries: make(map[string]cachedPipeline),
	}
}

// Get returns the pipeline for desc, building it on first use.
func (c *PipelineCache) Get(desc metadata.PipelineDescription) (metadata.PipelineStateObject, error) {
	key := string(desc.Encode())

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.pso, nil
	}
	pso, err := c.builder.BuildPipeline(desc)
	if err != nil {
		return nil, err
	}
	e := cachedPipeline{id: uuid.New(), pso: pso}
	c.entries[key] = e
	core.LogDebug("pipeline cache: %s stored as %s", pso.Label(), e.id)
	return pso, nil
}

// Named resolves a predefined pipeline by name and returns its cached pipeline.
func (c *PipelineCache) Named(name string) (metadata.PipelineStateObject, error) {
	desc, err := metadata.PredefinedPipeline(name)
	if err != nil {
		return nil, err
	}
	return c.Get(desc)
}

// ID returns the cache id assigned to desc, if it has been built.
func (c *PipelineCache) ID(desc metadata.PipelineDescription) (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[string(desc.Encode())]
	return e.id, ok
}

// Preload builds every predefined pipeline.
func (c *PipelineCache) Preload() error {
	for _, name := range metadata.PredefinedPipelineNames() {
		if _, err := c.Named(name); err != nil {
			return err
		}
	}
	return nil
}

func (c *PipelineCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *PipelineCache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	core.LogDebug("pipeline cache: dropping %d pipelines", len(c.entries))
	c.entries = make(map[string]cachedPipeline)
}
