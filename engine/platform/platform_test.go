package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func hintValue(hints []windowHint, h glfw.Hint) (int, bool) {
	for _, wh := range hints {
		if wh.hint == h {
			return wh.value, true
		}
	}
	return 0, false
}

func TestVulkanWindowHasNoClientAPI(t *testing.T) {
	hints := windowHints(metadata.BackendVulkan)
	api, ok := hintValue(hints, glfw.ClientAPI)
	assert.True(t, ok)
	assert.Equal(t, glfw.NoAPI, api)
	_, ok = hintValue(hints, glfw.ContextVersionMajor)
	assert.False(t, ok)
}

func TestOpenGLWindowRequestsCoreContext(t *testing.T) {
	hints := windowHints(metadata.BackendOpenGL)
	major, _ := hintValue(hints, glfw.ContextVersionMajor)
	minor, _ := hintValue(hints, glfw.ContextVersionMinor)
	profile, _ := hintValue(hints, glfw.OpenGLProfile)
	assert.Equal(t, 4, major)
	assert.Equal(t, 1, minor)
	assert.Equal(t, glfw.OpenGLCoreProfile, profile)
}

func TestPlatformImplementsWindow(t *testing.T) {
	var _ metadata.Window = New()
}
