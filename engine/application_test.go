package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func TestParseApplicationConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseApplicationConfig([]byte(`
name = "shadows"
log_level = "debug"

[renderer]
backend = "vulkan"
validation = true
`))
	require.NoError(t, err)

	def := DefaultApplicationConfig()
	assert.Equal(t, "shadows", cfg.Name)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, def.StartWidth, cfg.StartWidth)
	assert.Equal(t, def.AssetDir, cfg.AssetDir)
	assert.Equal(t, "vulkan", cfg.Renderer.Backend)
	assert.True(t, cfg.Renderer.Validation)
	assert.True(t, cfg.Renderer.VSync)
	assert.Equal(t, metadata.DefaultScratchBufferSize, cfg.Renderer.ScratchBufferSize)
	assert.Equal(t, metadata.DefaultSPIRVDir, cfg.Renderer.SPIRVDir)
}

func TestParseApplicationConfigRejectsBadValues(t *testing.T) {
	_, err := ParseApplicationConfig([]byte("[renderer]\nbackend = \"metal\"\n"))
	assert.Error(t, err)

	_, err = ParseApplicationConfig([]byte("start_width = 0\n"))
	assert.Error(t, err)

	_, err = ParseApplicationConfig([]byte("[renderer]\nscratch_buffer_size = 16\n"))
	assert.Error(t, err)

	_, err = ParseApplicationConfig([]byte("name = "))
	assert.Error(t, err)
}

func TestLoadApplicationConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anima.toml")
	require.NoError(t, os.WriteFile(path, []byte("start_width = 640\nstart_height = 480\n"), 0o644))

	cfg, err := LoadApplicationConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(640), cfg.StartWidth)
	assert.Equal(t, uint32(480), cfg.StartHeight)
	assert.Equal(t, "opengl", cfg.Renderer.Backend)

	_, err = LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
