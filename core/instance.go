package core

import (
	"errors"
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

const (
	validationLayerName  = "VK_LAYER_KHRONOS_validation\x00"
	debugReportExtension = "VK_EXT_debug_report\x00"
)

// NewVulkanInstance creates a Vulkan instance. The proc addr pointer
// comes from the windowing library, passing nil falls back to the
// system loader
func NewVulkanInstance(cfg InstanceConfiguration, procAddr unsafe.Pointer) (Instance, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	availableLayers, err := instanceLayers()
	if err != nil {
		return nil, err
	}
	availableExtensions, err := instanceExtensions()
	if err != nil {
		return nil, err
	}

	layers := safeStrings(cfg.Layers)
	if missing := missingNames(layers, availableLayers); len(missing) > 0 {
		return nil, fmt.Errorf("required instance layers not supported: %v", missing)
	}
	extensions := safeStrings(cfg.Extensions)
	if missing := missingNames(extensions, availableExtensions); len(missing) > 0 {
		return nil, fmt.Errorf("required instance extensions not supported: %v", missing)
	}

	// Validation is best effort, missing support downgrades it
	// instead of failing startup
	debugRequested := cfg.DebugMode
	if debugRequested {
		missingLayer := missingNames([]string{validationLayerName}, availableLayers)
		missingExt := missingNames([]string{debugReportExtension}, availableExtensions)
		if len(missingLayer) > 0 || len(missingExt) > 0 {
			log.Warn("validation requested but not available, continuing without it")
			debugRequested = false
		} else {
			layers = append(layers, validationLayerName)
			extensions = append(extensions, debugReportExtension)
		}
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         cfg.MinimumAPIVersion.Pack(),
		ApplicationVersion: cfg.AppVersion.Pack(),
		PApplicationName:   safeString(cfg.AppName),
		PEngineName:        safeString(cfg.AppName),
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	vk.InitInstance(instance)

	v := &VulkanInstance{
		configuration: cfg,
		instance:      instance,
	}

	if debugRequested {
		if err := v.setupDebugCallback(); err != nil {
			log.Warnf("debug callback setup failed: %s", err)
		}
	}

	v.availableDevices, err = enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("core.enumerateDevices(): " + err.Error())
	}
	log.Infof("found %d physical device(s)", len(v.availableDevices))

	return v, nil
}

// VulkanInstance describes a Vulkan API Instance
type VulkanInstance struct {
	Destroyable

	configuration InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	surface          vk.Surface
	instance         vk.Instance
	debugCallback    vk.DebugReportCallback
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	if deviceCount == 0 {
		return nil, errors.New("no Vulkan capable devices present")
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices, nil
}

func instanceLayers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}
	properties := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, properties)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}
	names := make([]string, 0, count)
	for _, p := range properties {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

func instanceExtensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, properties)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
	}
	names := make([]string, 0, count)
	for _, p := range properties {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

// missingNames reports requested names absent from available.
// Requested names carry the NUL suffix, available ones do not
func missingNames(requested, available []string) []string {
	var missing []string
	for _, want := range requested {
		found := false
		for _, have := range available {
			if have == unsafeString(want) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, unsafeString(want))
		}
	}
	return missing
}

// Adapters takes a capability snapshot of every physical device
// against the bound surface. A surface must be set first
func (v *VulkanInstance) Adapters() ([]*AdapterInfo, error) {
	if v.surface == vk.NullSurface {
		return nil, errors.New("no surface bound to instance")
	}
	adapters := make([]*AdapterInfo, 0, len(v.availableDevices))
	for _, device := range v.availableDevices {
		info, err := queryAdapter(device, v.surface)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"adapter": info.Name,
			"vendor":  info.VendorID,
			"device":  info.ID,
			"driver":  info.DriverVersion,
			"type":    info.DeviceType,
			"api":     UnpackApiVersion(info.APIVersion).String(),
			"memory":  info.Memory,
		}).Info("adapter found")
		adapters = append(adapters, info)
	}
	return adapters, nil
}

// SetSurface implements interface
func (v *VulkanInstance) SetSurface(pSurface unsafe.Pointer) {
	v.surface = vk.SurfaceFromPointer(uintptr(pSurface))
}

// Surface implements interface
func (v VulkanInstance) Surface() vk.Surface {
	if v.surface == nil {
		return vk.NullSurface
	}
	return v.surface
}

// Inner returns internal vk.Instance
func (v *VulkanInstance) Inner() interface{} {
	return v.instance
}

// AvailableDevices implements interface
func (v VulkanInstance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Destroy implements interface
func (v *VulkanInstance) Destroy() {
	v.availableDevices = nil
	if v.debugCallback != vk.DebugReportCallback(vk.NullHandle) {
		vk.DestroyDebugReportCallback(v.instance, v.debugCallback, nil)
	}
	if v.surface != vk.NullSurface {
		vk.DestroySurface(v.instance, v.surface, nil)
	}
	vk.DestroyInstance(v.instance, nil)
}
