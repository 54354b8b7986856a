package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", VulkanResultString(vk.Success, false))
	assert.Equal(t, "VK_ERROR_DEVICE_LOST The logical or physical device has been lost", VulkanResultString(vk.ErrorDeviceLost, true))
	assert.Equal(t, "VkResult(-12345)", VulkanResultString(vk.Result(-12345), false))
}

func TestVulkanResultIsSuccess(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfDate))
}

func TestVulkanError(t *testing.T) {
	assert.NoError(t, vulkanError("vkCreateFence", vk.Success))
	err := vulkanError("vkCreateFence", vk.ErrorOutOfHostMemory)
	assert.ErrorIs(t, err, ErrVulkan)
	assert.Contains(t, err.Error(), "vkCreateFence")
	assert.Contains(t, err.Error(), "VK_ERROR_OUT_OF_HOST_MEMORY")
}

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
	assert.Equal(t, "\x00", VulkanSafeString(""))

	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"a\x00", "b\x00"}, out)
	assert.Equal(t, "a", in[0], "input is not modified")
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "llvmpipe")
	assert.Equal(t, "llvmpipe", cString(name[:]))
	assert.Equal(t, "full", cString([]byte("full")))
}

func TestDebugReportLevel(t *testing.T) {
	level, label := debugReportLevel(vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit))
	assert.Equal(t, debugLevelError, level)
	assert.Equal(t, "ERROR", label)

	level, label = debugReportLevel(vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit))
	assert.Equal(t, debugLevelWarn, level)
	assert.Equal(t, "PERFORMANCE WARNING", label)

	level, _ = debugReportLevel(vk.DebugReportFlags(vk.DebugReportInformationBit))
	assert.Equal(t, debugLevelInfo, level)

	level, _ = debugReportLevel(vk.DebugReportFlags(vk.DebugReportDebugBit))
	assert.Equal(t, debugLevelDebug, level)
}

func TestDebugCallbackNeverAborts(t *testing.T) {
	res := dbgCallbackFunc(vk.DebugReportFlags(vk.DebugReportErrorBit), 0, 0, 0, 7, "validation", "bad thing", nil)
	assert.Equal(t, vk.Bool32(vk.False), res)
}

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(all, true))
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode(all, false))
	assert.Equal(t, vk.PresentModeImmediate, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, false))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo}, false))
}

func TestChooseExtent(t *testing.T) {
	minExtent := vk.Extent2D{Width: 1, Height: 1}
	maxExtent := vk.Extent2D{Width: 4096, Height: 2048}

	fixed := vk.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, fixed, chooseExtent(fixed, minExtent, maxExtent, 1024, 768))

	free := vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, chooseExtent(free, minExtent, maxExtent, 1024, 768))
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 1}, chooseExtent(free, minExtent, maxExtent, 9000, 0))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(2), chooseImageCount(1, 0))
	assert.Equal(t, uint32(3), chooseImageCount(3, 0))
	assert.Equal(t, uint32(2), chooseImageCount(2, 8))
	assert.Equal(t, uint32(1), chooseImageCount(1, 1), "surface maximum wins")
}

func TestCommandBufferStateString(t *testing.T) {
	assert.Equal(t, "in_render_pass", COMMAND_BUFFER_STATE_IN_RENDER_PASS.String())
	assert.Equal(t, "command_buffer_state(42)", VulkanCommandBufferState(42).String())
}

func TestCommandBufferRecordingStates(t *testing.T) {
	cb := &VulkanCommandBuffer{State: COMMAND_BUFFER_STATE_READY}
	assert.False(t, cb.Recording())
	assert.Error(t, (&VulkanCommandBuffer{State: COMMAND_BUFFER_STATE_SUBMITTED}).Begin(), "begin needs a reset buffer")

	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
	assert.True(t, cb.Recording())
	cb.UpdateSubmitted()
	assert.False(t, cb.Recording())
	cb.Reset()
	assert.Equal(t, COMMAND_BUFFER_STATE_READY, cb.State)
}

func TestFenceArmedAndSignaledShortcuts(t *testing.T) {
	f := &VulkanFence{IsSignaled: true}
	assert.NoError(t, f.Wait(nil, 0), "a signaled fence returns without a driver call")
	f.Armed()
	assert.False(t, f.IsSignaled)
	assert.NoError(t, f.Reset(nil), "an unsignaled fence needs no reset")
}

func TestLockPoolReusesGroupMutex(t *testing.T) {
	pool := NewVulkanLockPool()
	assert.Same(t, pool.lock(QueueManagement), pool.lock(QueueManagement))
	assert.NotSame(t, pool.lock(QueueManagement), pool.lock(PipelineManagement))

	calls := 0
	assert.NoError(t, pool.SafeCall(PipelineManagement, func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
}
