package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// AssetDir is the root of the watched asset tree.
	AssetDir string                  `toml:"asset_dir"`
	Renderer metadata.RendererConfig `toml:"renderer"`
}

func DefaultApplicationConfig() ApplicationConfig {
	return ApplicationConfig{
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  1280,
		StartHeight: 720,
		Name:        "Anima Gfx",
		LogLevel:    "info",
		AssetDir:    "assets",
		Renderer:    metadata.DefaultRendererConfig(),
	}
}

// LoadApplicationConfig reads a TOML file over the defaults, so absent keys
// keep their default value.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseApplicationConfig(data)
}

func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if _, err := metadata.ParseBackend(c.Renderer.Backend); err != nil {
		return err
	}
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return fmt.Errorf("window size %dx%d is empty", c.StartWidth, c.StartHeight)
	}
	if c.Renderer.ScratchBufferSize < 1024 {
		return fmt.Errorf("renderer scratch_buffer_size %d is below 1 KiB", c.Renderer.ScratchBufferSize)
	}
	return nil
}
