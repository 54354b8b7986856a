package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

func TestStorageFormat(t *testing.T) {
	f, texel, err := storageFormat(metadata.PixelFormatRGB8, true)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8Unorm, f)
	assert.Equal(t, 3, texel)

	f, texel, err = storageFormat(metadata.PixelFormatRGB8, false)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, f, "rgb8 widens when it cannot be sampled")
	assert.Equal(t, 4, texel)

	f, _, err = storageFormat(metadata.PixelFormatBGRA8, false)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f)

	_, _, err = storageFormat(metadata.PixelFormatInvalid, true)
	assert.ErrorIs(t, err, metadata.ErrUnsupportedFormat)
}

func TestPackTexelsPadsMissingChannels(t *testing.T) {
	rgb := []byte{1, 2, 3, 4, 5, 6}
	assert.Equal(t, []byte{1, 2, 3, 255, 4, 5, 6, 255}, packTexels(rgb, 2, 3, 4))
}

func TestPackTexelsDropsExtraChannels(t *testing.T) {
	rgba := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, []byte{1, 2, 3, 5, 6, 7}, packTexels(rgba, 2, 4, 3))
}

func TestPackTexelsSameSizeTrimsTrailingBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 9, 9}
	assert.Equal(t, []byte{1, 2, 3, 4}, packTexels(data, 1, 4, 4))
}

func TestUploadTransitions(t *testing.T) {
	before, after := uploadTransitions(2, vk.ImageLayoutUndefined)
	assert.Equal(t, vk.ImageLayoutUndefined, before.OldLayout)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, before.NewLayout)
	assert.Equal(t, uint32(2), before.BaseMip)
	assert.Equal(t, uint32(1), before.MipCount)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, after.NewLayout)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), after.DstStage)

	before, _ = uploadTransitions(0, vk.ImageLayoutShaderReadOnlyOptimal)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, before.OldLayout, "sampled contents outside the region are kept")
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), before.SrcAccess)
}
