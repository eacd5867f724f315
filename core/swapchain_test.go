package core_test

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Q4LEX/opencubes/core"
)

func TestChooseSurfaceFormatPrefersSrgb(t *testing.T) {
	c := qt.New(t)

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	chosen := core.ChooseSurfaceFormat(formats)
	c.Assert(chosen.Format, qt.Equals, vk.FormatB8g8r8a8Srgb)
	c.Assert(chosen.ColorSpace, qt.Equals, vk.ColorSpaceSrgbNonlinear)
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	c := qt.New(t)

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	c.Assert(core.ChooseSurfaceFormat(formats).Format, qt.Equals, vk.FormatR8g8b8a8Unorm)
}

func TestChooseSurfaceFormatIdempotent(t *testing.T) {
	c := qt.New(t)

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	once := core.ChooseSurfaceFormat(formats)
	twice := core.ChooseSurfaceFormat([]vk.SurfaceFormat{once})
	c.Assert(twice, qt.Equals, once)
}

func TestChoosePresentModePrefersMailbox(t *testing.T) {
	c := qt.New(t)

	modes := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo}
	c.Assert(core.ChoosePresentMode(modes), qt.Equals, vk.PresentModeMailbox)
}

func TestChoosePresentModeFallsBackToFifo(t *testing.T) {
	c := qt.New(t)

	modes := []vk.PresentMode{vk.PresentModeImmediate}
	c.Assert(core.ChoosePresentMode(modes), qt.Equals, vk.PresentModeFifo)
}

func TestChooseExtentHonoursPinnedExtent(t *testing.T) {
	c := qt.New(t)

	capabilities := core.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	extent := core.ChooseExtent(capabilities, 1024, 768)
	c.Assert(extent, qt.Equals, vk.Extent2D{Width: 800, Height: 600})
}

func TestChooseExtentSentinelUsesWindowSize(t *testing.T) {
	c := qt.New(t)

	capabilities := core.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: uint32(math.MaxUint32), Height: uint32(math.MaxUint32)},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	extent := core.ChooseExtent(capabilities, 1024, 768)
	c.Assert(extent, qt.Equals, vk.Extent2D{Width: 1024, Height: 768})
}

func TestChooseExtentSentinelClampsToSupportedRange(t *testing.T) {
	c := qt.New(t)

	capabilities := core.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: uint32(math.MaxUint32), Height: uint32(math.MaxUint32)},
		MinImageExtent: vk.Extent2D{Width: 200, Height: 200},
		MaxImageExtent: vk.Extent2D{Width: 640, Height: 480},
	}

	c.Assert(core.ChooseExtent(capabilities, 1024, 768), qt.Equals, vk.Extent2D{Width: 640, Height: 480})
	c.Assert(core.ChooseExtent(capabilities, 100, 100), qt.Equals, vk.Extent2D{Width: 200, Height: 200})
}

func TestChooseImageCountOneOverMinimum(t *testing.T) {
	c := qt.New(t)

	capabilities := core.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}
	c.Assert(core.ChooseImageCount(capabilities), qt.Equals, uint32(3))
}

func TestChooseImageCountUnboundedMaximum(t *testing.T) {
	c := qt.New(t)

	// MaxImageCount of zero means no upper bound
	capabilities := core.SurfaceCapabilities{MinImageCount: 1, MaxImageCount: 0}
	c.Assert(core.ChooseImageCount(capabilities), qt.Equals, uint32(2))
}

func TestChooseImageCountClampedByMaximum(t *testing.T) {
	c := qt.New(t)

	capabilities := core.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}
	c.Assert(core.ChooseImageCount(capabilities), qt.Equals, uint32(3))
}

func TestChooseSharingModeSharedFamily(t *testing.T) {
	c := qt.New(t)

	family := uint32(0)
	mode, indices := core.ChooseSharingMode(core.QueueFamilyIndices{Graphics: &family, Present: &family})
	c.Assert(mode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(indices, qt.IsNil)
}

func TestChooseSharingModeSplitFamilies(t *testing.T) {
	c := qt.New(t)

	graphics, present := uint32(0), uint32(2)
	mode, indices := core.ChooseSharingMode(core.QueueFamilyIndices{Graphics: &graphics, Present: &present})
	c.Assert(mode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(indices, qt.DeepEquals, []uint32{0, 2})
}
