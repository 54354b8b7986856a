package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestBufferUploadBarrierCoversVertexAndIndexReads(t *testing.T) {
	b := bufferUploadBarrier()
	assert.Equal(t, vk.StructureTypeMemoryBarrier, b.SType)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.SrcAccessMask)
	assert.NotZero(t, b.DstAccessMask&vk.AccessFlags(vk.AccessVertexAttributeReadBit))
	assert.NotZero(t, b.DstAccessMask&vk.AccessFlags(vk.AccessIndexReadBit))
	assert.Zero(t, b.DstAccessMask&vk.AccessFlags(vk.AccessTransferWriteBit))
}
