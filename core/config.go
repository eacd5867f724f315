package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Configuration defines a global engine configuration setting.
// It is constructed once at startup and passed around by reference,
// nothing mutates it after creation.
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out.
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the interval between window event
	// polls, in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used when creating a Vulkan instance
type InstanceConfiguration struct {
	AppName    string
	AppVersion ApiVersion

	// MinimumAPIVersion is the lowest Vulkan version an adapter
	// may report and still be eligible for selection
	MinimumAPIVersion ApiVersion

	// DebugMode requests the validation layer and the debug report
	// extension. Both are dropped silently when the platform
	// does not have them
	DebugMode bool

	// Extensions are instance extensions the window system needs
	Extensions []string

	// Layers are additional instance layers to enable
	Layers []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// DeviceExtensions an adapter must carry to be eligible
	DeviceExtensions []string

	// DeviceLayers an adapter must carry to be eligible.
	// Usually empty, device layers are deprecated
	DeviceLayers []string

	// OptionalExtensions add their rating to an adapter's score when
	// supported. Ratings holds one weight per entry, same order
	OptionalExtensions []string
	Ratings            []uint32

	ClearColor mgl32.Vec4

	// VertexShader and FragmentShader are precompiled SPIR-V blobs
	VertexShader   []byte
	FragmentShader []byte
}

// ApiVersion is a Vulkan API version triple
type ApiVersion struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// Pack encodes the version the way Vulkan wants it in ApplicationInfo
func (v ApiVersion) Pack() uint32 {
	return v.Major<<22 | v.Minor<<12 | v.Patch
}

// PackPatchless encodes the version with the patch zeroed out.
// Adapter minimums are compared patchless, drivers are free to
// report any patch level
func (v ApiVersion) PackPatchless() uint32 {
	return v.Major<<22 | v.Minor<<12
}

// AtLeast reports whether v is the same or a later version than o,
// ignoring the patch component
func (v ApiVersion) AtLeast(o ApiVersion) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	return v.Minor >= o.Minor
}

// UnpackApiVersion decodes a packed version as reported by a driver
func UnpackApiVersion(packed uint32) ApiVersion {
	return ApiVersion{
		Major: packed >> 22,
		Minor: (packed >> 12) & 0x3ff,
		Patch: packed & 0xfff,
	}
}

func (v ApiVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
