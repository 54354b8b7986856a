package systems

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/anima-gfx/engine/assets"
	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/frames"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

const (
	DefaultTextureName = "default"
	// defaultTextureSize is the side of the checkerboard shown while a texture loads.
	defaultTextureSize = 16
)

// TextureCreator is the part of a device the texture system needs.
type TextureCreator interface {
	CreateTexture(mipLevels, width, height uint32, format metadata.PixelFormat) (metadata.Texture, error)
}

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	/** @brief Directory, relative to the asset root, image files are read from. */
	Directory string
}

type TextureReference struct {
	ID       uint32
	Name     string
	RefCount uint32
	// Texture is nil while the image is still decoding.
	Texture metadata.Texture
	Failed  bool
}

type TextureSystem struct {
	config         TextureSystemConfig
	defaultTexture metadata.Texture
	registered     map[string]*TextureReference
	ids            *core.IdentifierPool
	// sub systems
	device       TextureCreator
	jobSystem    *JobSystem
	assetManager *assets.AssetManager
}

func NewTextureSystem(config TextureSystemConfig, device TextureCreator, js *JobSystem, am *assets.AssetManager) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		return nil, fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
	}
	if device == nil || js == nil {
		return nil, fmt.Errorf("func NewTextureSystem - a device and a job system are required")
	}
	return &TextureSystem{
		config:       config,
		registered:   make(map[string]*TextureReference),
		ids:          core.NewIdentifierPool(int(config.MaxTextureCount)),
		device:       device,
		jobSystem:    js,
		assetManager: am,
	}, nil
}

// Initialize creates the checkerboard texture returned while real textures load.
func (ts *TextureSystem) Initialize() error {
	pixels := checkerboard(defaultTextureSize)
	t, err := ts.device.CreateTexture(1, defaultTextureSize, defaultTextureSize, metadata.PixelFormatRGBA8)
	if err != nil {
		return fmt.Errorf("failed to create the default texture: %w", err)
	}
	if err := t.Upload(0, 0, 0, defaultTextureSize, defaultTextureSize, metadata.PixelFormatRGBA8, pixels); err != nil {
		t.Destroy()
		return fmt.Errorf("failed to upload the default texture: %w", err)
	}
	ts.defaultTexture = t
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	for name, ref := range ts.registered {
		if ref.Texture != nil {
			ref.Texture.Destroy()
		}
		delete(ts.registered, name)
	}
	if ts.defaultTexture != nil {
		ts.defaultTexture.Destroy()
		ts.defaultTexture = nil
	}
	return nil
}

func (ts *TextureSystem) Default() metadata.Texture {
	return ts.defaultTexture
}

// Load starts decoding name on the job system. The texture is created and
// every mip level uploaded when the job completes in JobSystem.Update.
func (ts *TextureSystem) Load(name string) (*TextureReference, error) {
	if ref, ok := ts.registered[name]; ok {
		return ref, nil
	}
	if uint32(len(ts.registered)) >= ts.config.MaxTextureCount {
		return nil, fmt.Errorf("texture system is full (%d textures), cannot load '%s'", ts.config.MaxTextureCount, name)
	}

	ref := &TextureReference{Name: name}
	ref.ID = ts.ids.Acquire(ref)
	ts.registered[name] = ref

	path := ts.path(name)
	ts.jobSystem.Submit(JobTask{
		Name: "load texture " + name,
		Run: func() (interface{}, error) {
			return assets.LoadImage(path, true)
		},
		OnComplete: func(result interface{}) {
			ts.finishLoad(ref, result.(*assets.Image))
		},
		OnFailure: func(err error) {
			ref.Failed = true
			core.LogWarn("texture '%s' failed to load, using the default texture: %s", name, err)
		},
	})
	return ref, nil
}

func (ts *TextureSystem) finishLoad(ref *TextureReference, img *assets.Image) {
	if current, ok := ts.registered[ref.Name]; !ok || current != ref {
		// released before the image finished decoding
		return
	}
	t, err := ts.device.CreateTexture(img.MipLevels(), img.Width, img.Height, metadata.PixelFormatRGBA8)
	if err != nil {
		ref.Failed = true
		core.LogError("failed to create texture '%s': %s", ref.Name, err)
		return
	}
	for level := uint32(0); level < img.MipLevels(); level++ {
		w, h, pixels := img.Level(level)
		if err := t.Upload(level, 0, 0, w, h, metadata.PixelFormatRGBA8, pixels); err != nil {
			t.Destroy()
			ref.Failed = true
			if errors.Is(err, frames.ErrRingOverlap) || errors.Is(err, frames.ErrAllocationTooLarge) {
				// ring exhaustion is fatal on every path
				core.LogFatal("failed to stage mip %d of texture '%s': %s", level, ref.Name, err)
				return
			}
			core.LogError("failed to upload mip %d of texture '%s': %s", level, ref.Name, err)
			return
		}
	}
	ref.Texture = t
	if ts.assetManager != nil {
		ts.assetManager.MarkLoaded(ts.path(ref.Name))
	}
	core.LogDebug("texture '%s' loaded: %dx%d, %d mips, id %d", ref.Name, img.Width, img.Height, img.MipLevels(), ref.ID)
}

// Acquire increments the reference count of name, loading it on first use.
// Until the load finishes the default texture is returned.
func (ts *TextureSystem) Acquire(name string) (metadata.Texture, error) {
	if name == DefaultTextureName {
		return ts.defaultTexture, nil
	}
	ref, err := ts.Load(name)
	if err != nil {
		return nil, err
	}
	ref.RefCount++
	if ref.Texture == nil {
		return ts.defaultTexture, nil
	}
	return ref.Texture, nil
}

// Get returns the loaded texture for name, or the default texture.
func (ts *TextureSystem) Get(name string) metadata.Texture {
	if ref, ok := ts.registered[name]; ok && ref.Texture != nil {
		return ref.Texture
	}
	return ts.defaultTexture
}

// Release drops one reference. The texture is destroyed with the last one.
func (ts *TextureSystem) Release(name string) error {
	ref, ok := ts.registered[name]
	if !ok {
		return fmt.Errorf("release of unknown texture '%s'", name)
	}
	if ref.RefCount > 0 {
		ref.RefCount--
	}
	if ref.RefCount > 0 {
		return nil
	}
	if ref.Texture != nil {
		ref.Texture.Destroy()
		ref.Texture = nil
	}
	delete(ts.registered, name)
	return ts.ids.Release(ref.ID)
}

func (ts *TextureSystem) path(name string) string {
	rel := filepath.Join(ts.config.Directory, name)
	if ts.assetManager != nil {
		return ts.assetManager.Resolve(rel)
	}
	return rel
}

func checkerboard(size uint32) []byte {
	pixels := make([]byte, metadata.TextureSize(size, size, metadata.PixelFormatRGBA8))
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			i := (y*size + x) * 4
			pixels[i+3] = 255
			if (x/4+y/4)%2 == 0 {
				pixels[i] = 255
				pixels[i+1] = 255
				pixels[i+2] = 255
			} else {
				pixels[i+2] = 255
			}
		}
	}
	return pixels
}
