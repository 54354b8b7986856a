package assets

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, AssetTypeShaderSource, determineAssetType("shaders/gl/rect.vert"))
	assert.Equal(t, AssetTypeShaderSource, determineAssetType("rect.FRAG"))
	assert.Equal(t, AssetTypeSPIRV, determineAssetType("rect.vert.spv"))
	assert.Equal(t, AssetTypeImage, determineAssetType("textures/page.png"))
	assert.Equal(t, AssetTypeFont, determineAssetType("fonts/hud.fnt"))
	assert.Equal(t, AssetTypeNone, determineAssetType("README.md"))
}

func TestAssetManagerIndexesTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "gl", "rect.vert"), []byte("#version 410\n"))
	writeFile(t, filepath.Join(dir, "fonts", "hud.fnt"), []byte("info"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	assert.Equal(t, 2, am.Len())
	info, ok := am.Lookup(filepath.Join(dir, "shaders", "gl", "rect.vert"))
	require.True(t, ok)
	assert.Equal(t, AssetTypeShaderSource, info.Type)
	assert.True(t, info.LastLoaded.IsZero())
	assert.Equal(t, filepath.Join(dir, "fonts", "hud.fnt"), am.Resolve("fonts/hud.fnt"))
}

func TestAssetManagerReportsRewrittenShader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rect.frag")
	writeFile(t, path, []byte("void main() {}\n"))

	if err := core.EventInitialize(); err == nil {
		defer core.EventShutdown()
	}
	var changed atomic.Value
	listener := new(int)
	require.True(t, core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, listener, func(code core.SystemEventCode, sender, l interface{}, data core.EventContext) bool {
		changed.Store(data.Data.S)
		return true
	}))
	defer core.EventUnregister(core.EVENT_CODE_ASSET_CHANGED, listener)

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	lib := NewShaderLibrary(am, dir, dir)
	_, err = lib.GLSL("rect.frag")
	require.NoError(t, err)
	info, ok := am.Lookup(path)
	require.True(t, ok)
	assert.False(t, info.LastLoaded.IsZero())

	writeFile(t, path, []byte("void main() { discard; }\n"))
	assert.Eventually(t, func() bool {
		v, _ := changed.Load().(string)
		return v == path
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAssetManagerShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))
	assert.NoError(t, am.Shutdown())
	assert.NoError(t, am.Shutdown())
	assert.ErrorIs(t, am.addRecursive(t.TempDir()), ErrWatcherClosed)
}

func TestShaderLibrarySPIRV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.spv"), []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	writeFile(t, filepath.Join(dir, "short.spv"), []byte{0x03, 0x02, 0x23})

	lib := NewShaderLibrary(nil, dir, dir)
	words, err := lib.SPIRV("ok.spv")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)

	_, err = lib.SPIRV("short.spv")
	assert.ErrorIs(t, err, ErrBadSPIRV)

	_, err = lib.SPIRV("missing.spv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
