package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// Adapters returns a read-only capability snapshot for every
	// physical device visible to the instance, taken against the
	// currently bound surface
	Adapters() ([]*AdapterInfo, error)

	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// SetSurface sets the window surface for rendering
	SetSurface(unsafe.Pointer)

	// Surface returns the window surface, if it's not set
	// it should return a valid but empty surface
	Surface() vk.Surface

	// Inner returns the inner handle of the underlying API
	Inner() interface{}

	// Destroy destroys internal members
	Destroy()
}

// Destroyable is anything that owns API objects needing
// explicit teardown
type Destroyable interface {
	Destroy()
}

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	// Initialise picks a physical device and sets up the
	// configured rendering pipeline
	Initialise() error

	// DrawFrame records and submits one frame, then presents it.
	// Must only be called from the thread that owns the renderer
	DrawFrame() error

	// Destroy destroys internal members
	Destroy()
}

// Shader represents a compiled shader module loaded into a device
type Shader interface {
	// Type returns the pipeline stage this shader belongs to
	Type() ShaderType

	// ShaderModule is an accessor to the underlying API object
	ShaderModule() interface{}

	// Destroy destroys internal members
	Destroy()
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)
