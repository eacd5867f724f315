package core

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// discreteGpuBonus dwarfs every optional extension rating, a discrete
// card wins against any equally capable integrated one
const discreteGpuBonus = 1000

// AdapterInfo is a read-only snapshot of one physical device,
// taken against a specific surface. It is rebuilt per candidate
// during selection and never mutated afterwards.
type AdapterInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	DeviceType    vk.PhysicalDeviceType
	APIVersion    uint32
	Memory        uint64
	Extensions    []string
	Layers        []string

	// QueueFlags holds the capability flags of every queue family,
	// indexed by family. PresentSupport holds, per family, whether
	// it can present to the surface the snapshot was taken against
	QueueFlags     []vk.QueueFlags
	PresentSupport []bool

	Surface SurfaceSupport

	handle vk.PhysicalDevice
}

// SurfaceSupport is the surface related part of an adapter snapshot
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SurfaceCapabilities mirrors the fields of the Vulkan surface
// capability query that drive swapchain construction
type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    vk.Extent2D
	MinImageExtent   vk.Extent2D
	MaxImageExtent   vk.Extent2D
	CurrentTransform vk.SurfaceTransformFlagBits
}

// Handle returns the physical device handle this snapshot was taken from
func (a *AdapterInfo) Handle() vk.PhysicalDevice {
	return a.handle
}

// HasExtension reports whether the adapter carries a device extension
func (a *AdapterInfo) HasExtension(name string) bool {
	want := unsafeString(name)
	for _, ext := range a.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// HasLayer reports whether the adapter carries a device layer
func (a *AdapterInfo) HasLayer(name string) bool {
	want := unsafeString(name)
	for _, layer := range a.Layers {
		if layer == want {
			return true
		}
	}
	return false
}

// QueueFamilyIndices holds the resolved queue families of a selected
// adapter. Graphics and Present may point at the same family
type QueueFamilyIndices struct {
	Graphics *uint32
	Present  *uint32
}

// Complete reports whether both families resolved
func (q QueueFamilyIndices) Complete() bool {
	return q.Graphics != nil && q.Present != nil
}

// Unique returns the distinct family indices, graphics first
func (q QueueFamilyIndices) Unique() []uint32 {
	var result []uint32
	seen := make(map[uint32]struct{})
	for _, idx := range []*uint32{q.Graphics, q.Present} {
		if idx == nil {
			continue
		}
		if _, ok := seen[*idx]; ok {
			continue
		}
		seen[*idx] = struct{}{}
		result = append(result, *idx)
	}
	return result
}

// FindQueueFamilies scans the snapshot for the first graphics capable
// family and the first family that can present to the surface.
// Unresolved families stay nil, they are never defaulted
func (a *AdapterInfo) FindQueueFamilies() QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i := range a.QueueFlags {
		idx := uint32(i)
		if indices.Graphics == nil && a.QueueFlags[i]&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			graphics := idx
			indices.Graphics = &graphics
		}
		if indices.Present == nil && i < len(a.PresentSupport) && a.PresentSupport[i] {
			present := idx
			indices.Present = &present
		}
	}
	return indices
}

// rateAdapter scores a candidate, or explains why it is rejected.
// Rejected candidates never reach scoring
func rateAdapter(info *AdapterInfo, cfg *RendererConfiguration, minVersion ApiVersion) (uint32, error) {
	indices := info.FindQueueFamilies()
	if indices.Graphics == nil {
		return 0, errors.New("no graphics capable queue family")
	}
	if indices.Present == nil {
		return 0, errors.New("no queue family can present to the surface")
	}

	for _, required := range cfg.DeviceExtensions {
		if !info.HasExtension(required) {
			return 0, fmt.Errorf("missing required extension %q", unsafeString(required))
		}
	}

	for _, required := range cfg.DeviceLayers {
		if !info.HasLayer(required) {
			return 0, fmt.Errorf("missing required layer %q", unsafeString(required))
		}
	}

	if len(info.Surface.Formats) == 0 {
		return 0, errors.New("no surface formats reported")
	}
	if len(info.Surface.PresentModes) == 0 {
		return 0, errors.New("no present modes reported")
	}

	if version := UnpackApiVersion(info.APIVersion); !version.AtLeast(minVersion) {
		return 0, fmt.Errorf("api version %s below required %s", version, minVersion)
	}

	var score uint32
	if info.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		score += discreteGpuBonus
	}
	for idx, optional := range cfg.OptionalExtensions {
		if info.HasExtension(optional) {
			score += cfg.Ratings[idx]
		}
	}
	return score, nil
}

// SelectAdapter picks the highest scoring eligible adapter. Ties
// resolve to the first one in enumeration order. An empty result is
// a startup precondition failure, there is no recovery from it
func SelectAdapter(adapters []*AdapterInfo, cfg *RendererConfiguration, minVersion ApiVersion) (*AdapterInfo, QueueFamilyIndices, error) {
	if len(cfg.OptionalExtensions) != len(cfg.Ratings) {
		return nil, QueueFamilyIndices{}, errors.New("optional extension list and rating table length mismatch")
	}

	var (
		best      *AdapterInfo
		bestScore uint32
		found     bool
	)
	for _, info := range adapters {
		score, err := rateAdapter(info, cfg, minVersion)
		if err != nil {
			log.WithField("adapter", info.Name).Infof("adapter rejected: %s", err)
			continue
		}
		log.WithField("adapter", info.Name).Infof("adapter eligible, score %d", score)
		if !found || score > bestScore {
			best = info
			bestScore = score
			found = true
		}
	}

	if !found {
		return nil, QueueFamilyIndices{}, errors.New("no suitable physical device found")
	}
	return best, best.FindQueueFamilies(), nil
}

// queryAdapter builds the capability snapshot for one physical device
// against the given surface
func queryAdapter(device vk.PhysicalDevice, surface vk.Surface) (*AdapterInfo, error) {
	info := &AdapterInfo{handle: device}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.DriverVersion = int(properties.DriverVersion)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DeviceType = properties.DeviceType
	info.APIVersion = properties.ApiVersion

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memoryProperties)
	memoryProperties.Deref()
	for i := uint32(0); i < memoryProperties.MemoryHeapCount; i++ {
		memoryProperties.MemoryHeaps[i].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[i].Size)
	}

	var numExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numExtensions, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	extensions := make([]vk.ExtensionProperties, numExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numExtensions, extensions)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	for _, ext := range extensions {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numLayers, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceLayerProperties(): " + err.Error())
	}
	layers := make([]vk.LayerProperties, numLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numLayers, layers)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceLayerProperties(): " + err.Error())
	}
	for _, layer := range layers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		info.QueueFlags = append(info.QueueFlags, queueFamilies[i].QueueFlags)

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supportsPresent)
		info.PresentSupport = append(info.PresentSupport, supportsPresent.B())
	}

	support, err := querySurfaceSupport(device, surface)
	if err != nil {
		return nil, err
	}
	info.Surface = support

	return info, nil
}

func querySurfaceSupport(device vk.PhysicalDevice, surface vk.Surface) (SurfaceSupport, error) {
	var support SurfaceSupport

	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &capabilities)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	support.Capabilities = SurfaceCapabilities{
		MinImageCount:    capabilities.MinImageCount,
		MaxImageCount:    capabilities.MaxImageCount,
		CurrentExtent:    capabilities.CurrentExtent,
		MinImageExtent:   capabilities.MinImageExtent,
		MaxImageExtent:   capabilities.MaxImageExtent,
		CurrentTransform: capabilities.CurrentTransform,
	}

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, formats)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	for i := range formats {
		formats[i].Deref()
	}
	support.Formats = formats

	var presentModeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &presentModeCount, nil)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	presentModes := make([]vk.PresentMode, presentModeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &presentModeCount, presentModes)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	support.PresentModes = presentModes

	return support, nil
}
