package platform

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// VulkanSupport is implemented by backends that can bootstrap the Vulkan
// loader and report the instance extensions surface creation needs.
type VulkanSupport interface {
	InitVulkan() error
	InstanceExtensions() []string
}

// VulkanSurfacer is implemented by native windows that can create a Vulkan
// rendering surface. Renderers type-assert for it after WindowCreated.
type VulkanSurfacer interface {
	CreateVulkanSurface(instance vk.Instance) (vk.Surface, error)
}

// InitVulkan routes the Vulkan loader through GLFW's proc address lookup and
// initializes it. Call once, before creating an instance.
func (b *GLFWBackend) InitVulkan() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("vulkan loader not available")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("initializing vulkan: %w", err)
	}
	return nil
}

func (gw *glfwWindow) CreateVulkanSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := gw.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("creating window surface: %w", err)
	}
	return vk.SurfaceFromPointer(ptr), nil
}
