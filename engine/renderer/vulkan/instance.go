package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/engine/renderer/metadata"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// loadLoader points the binding at the loader glfw found and resolves the
// global entry points.
func loadLoader() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("%w: GetInstanceProcAddress is nil, no Vulkan loader", ErrVulkan)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}
	return nil
}

// createInstance creates the instance with the extensions window needs for
// presentation, plus validation and the debug callback when cfg asks for them.
func createInstance(context *VulkanContext, cfg metadata.RendererConfig, window metadata.Window) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(cfg.AppName),
		PEngineName:        VulkanSafeString("Anima Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := append([]string{}, window.RequiredInstanceExtensions()...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if cfg.Validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		ok, err := layerAvailable(validationLayerName)
		if err != nil {
			return err
		}
		if ok {
			layers = append(layers, validationLayerName)
		} else {
			core.LogWarn("Validation requested but %s is not installed", validationLayerName)
		}
	}
	for _, e := range extensions {
		core.LogDebug("Instance extension: %s", e)
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if err := vulkanError("vkCreateInstance", vk.CreateInstance(&createInfo, context.Allocator, &instance)); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, context.Allocator)
		return fmt.Errorf("failed to load instance entry points: %w", err)
	}
	context.Instance = instance
	core.LogInfo("Vulkan instance created with %d extensions and %d layers", len(extensions), len(layers))

	if cfg.Validation {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType: vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vulkanError("vkCreateDebugReportCallback", vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg)); err != nil {
			core.LogWarn("Vulkan debug callback unavailable: %s", err)
		} else {
			context.debugCallback = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}
	return nil
}

func layerAvailable(name string) (bool, error) {
	var count uint32
	if err := vulkanError("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return false, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := vulkanError("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return false, err
	}
	for i := range layers {
		layers[i].Deref()
		if cString(layers[i].LayerName[:]) == name {
			return true, nil
		}
	}
	return false, nil
}

// createSurface asks the window for a presentation surface on the instance.
func createSurface(context *VulkanContext, window metadata.Window) error {
	surface, err := window.CreateWindowSurface(context.Instance, nil)
	if err != nil {
		return fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	if surface == 0 {
		return fmt.Errorf("%w: window returned a null surface", ErrVulkan)
	}
	context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")
	return nil
}

func destroyInstance(context *VulkanContext) {
	if context.Instance == nil {
		return
	}
	if context.Surface != nil {
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = nil
	}
	if context.debugCallback != nil {
		vk.DestroyDebugReportCallback(context.Instance, context.debugCallback, context.Allocator)
		context.debugCallback = nil
	}
	vk.DestroyInstance(context.Instance, context.Allocator)
	context.Instance = nil
}

// dbgCallbackFunc forwards driver messages to the log at the matching level.
// It never aborts the call that triggered it.
func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	level, label := debugReportLevel(flags)
	switch level {
	case debugLevelError:
		core.LogError("%s: [%s] Code %d : %s", label, pLayerPrefix, messageCode, pMessage)
	case debugLevelWarn:
		core.LogWarn("%s: [%s] Code %d : %s", label, pLayerPrefix, messageCode, pMessage)
	case debugLevelInfo:
		core.LogInfo("%s: [%s] Code %d : %s", label, pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("%s: [%s] Code %d : %s", label, pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

type debugLevel uint8

const (
	debugLevelDebug debugLevel = iota
	debugLevelInfo
	debugLevelWarn
	debugLevelError
)

// debugReportLevel picks the most severe flag of a debug report.
func debugReportLevel(flags vk.DebugReportFlags) (debugLevel, string) {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return debugLevelError, "ERROR"
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return debugLevelWarn, "WARNING"
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return debugLevelWarn, "PERFORMANCE WARNING"
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return debugLevelInfo, "INFORMATION"
	default:
		return debugLevelDebug, "DEBUG"
	}
}
