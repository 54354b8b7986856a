package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

// ErrNoSuitableDevice means no physical device can draw to and present on the surface.
var ErrNoSuitableDevice = errors.New("no suitable Vulkan device")

// depthFormat is the only depth/stencil format the render pass uses.
const depthFormat = vk.FormatD32SfloatS8Uint

type VulkanPhysicalDeviceRequirements struct {
	DeviceExtensionNames []string
	SamplerAnisotropy    bool
}

var deviceRequirements = VulkanPhysicalDeviceRequirements{
	DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	SamplerAnisotropy:    true,
}

// SelectPhysicalDevice picks the first device with a queue family that can
// both draw and present to the surface, and records it in context.
func SelectPhysicalDevice(context *VulkanContext) error {
	var count uint32
	if err := vulkanError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &count, nil)); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: no devices which support Vulkan were found", ErrNoSuitableDevice)
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vulkanError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &count, devices)); err != nil {
		return err
	}

	for _, device := range devices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(device, &properties)
		properties.Deref()
		name := cString(properties.DeviceName[:])

		family, ok, err := graphicsPresentFamily(device, context.Surface)
		if err != nil {
			return err
		}
		if !ok {
			core.LogInfo("Device '%s' has no queue that can draw and present, skipping.", name)
			continue
		}
		if ok, reason := meetsRequirements(device, &deviceRequirements); !ok {
			core.LogInfo("Device '%s' %s, skipping.", name, reason)
			continue
		}

		context.PhysicalDevice = device
		context.Properties = properties
		context.QueueFamily = family
		vk.GetPhysicalDeviceMemoryProperties(device, &context.Memory)
		context.Memory.Deref()
		logDevice(name, properties, context.Memory)
		return nil
	}
	return fmt.Errorf("%w: none of %d devices meet the requirements", ErrNoSuitableDevice, count)
}

func graphicsPresentFamily(device vk.PhysicalDevice, surface vk.Surface) (uint32, bool, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)

	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var supportsPresent vk.Bool32
		if err := vulkanError("vkGetPhysicalDeviceSurfaceSupport", vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supportsPresent)); err != nil {
			return 0, false, err
		}
		if supportsPresent == vk.True {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func meetsRequirements(device vk.PhysicalDevice, requirements *VulkanPhysicalDeviceRequirements) (bool, string) {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(device, &features)
	features.Deref()
	if requirements.SamplerAnisotropy && features.SamplerAnisotropy == vk.False {
		return false, "does not support samplerAnisotropy"
	}

	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return false, "cannot list extensions"
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, available); res != vk.Success {
		return false, "cannot list extensions"
	}
	names := make(map[string]bool, count)
	for i := range available {
		available[i].Deref()
		names[cString(available[i].ExtensionName[:])] = true
	}
	for _, required := range requirements.DeviceExtensionNames {
		if !names[required] {
			return false, fmt.Sprintf("lacks extension '%s'", required)
		}
	}
	return true, ""
}

func logDevice(name string, properties vk.PhysicalDeviceProperties, memory vk.PhysicalDeviceMemoryProperties) {
	core.LogInfo("Selected device: '%s'.", name)
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo("GPU Driver version: %d.%d.%d",
		vk.Version(properties.DriverVersion).Major(),
		vk.Version(properties.DriverVersion).Minor(),
		vk.Version(properties.DriverVersion).Patch())
	core.LogInfo("Vulkan API version: %d.%d.%d",
		vk.Version(properties.ApiVersion).Major(),
		vk.Version(properties.ApiVersion).Minor(),
		vk.Version(properties.ApiVersion).Patch())

	for i := uint32(0); i < memory.MemoryHeapCount; i++ {
		memory.MemoryHeaps[i].Deref()
		gib := float64(memory.MemoryHeaps[i].Size) / 1024 / 1024 / 1024
		if vk.MemoryHeapFlagBits(memory.MemoryHeaps[i].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", gib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", gib)
		}
	}
}

// CreateLogicalDevice creates the device with one queue from the selected
// family, the swapchain extension and anisotropic filtering.
func CreateLogicalDevice(context *VulkanContext) error {
	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: context.QueueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	extensions := deviceRequirements.DeviceExtensionNames
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{SamplerAnisotropy: vk.True}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}

	var device vk.Device
	if err := vulkanError("vkCreateDevice", vk.CreateDevice(context.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device)); err != nil {
		core.LogError(err.Error())
		return err
	}
	context.LogicalDevice = device

	var queue vk.Queue
	vk.GetDeviceQueue(context.LogicalDevice, context.QueueFamily, 0, &queue)
	context.Queue = queue

	context.RGB8Supported = formatSupports(context.PhysicalDevice, vk.FormatR8g8b8Unorm, vk.FormatFeatureSampledImageBit)
	core.LogInfo("Logical device created, queue family %d, rgb8 sampling %t", context.QueueFamily, context.RGB8Supported)
	return nil
}

// formatSupports reports whether format has feature with optimal tiling.
func formatSupports(device vk.PhysicalDevice, format vk.Format, feature vk.FormatFeatureFlagBits) bool {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(device, format, &properties)
	properties.Deref()
	return vk.FormatFeatureFlagBits(properties.OptimalTilingFeatures)&feature == feature
}

func DestroyLogicalDevice(context *VulkanContext) {
	context.Queue = nil
	if context.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(context.LogicalDevice, context.Allocator)
		context.LogicalDevice = nil
	}
	context.PhysicalDevice = nil
}
