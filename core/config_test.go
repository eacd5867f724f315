package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Q4LEX/opencubes/core"
)

func TestApiVersionPackRoundTrip(t *testing.T) {
	c := qt.New(t)

	version := core.ApiVersion{Major: 1, Minor: 2, Patch: 131}
	c.Assert(core.UnpackApiVersion(version.Pack()), qt.Equals, version)
}

func TestApiVersionPackPatchless(t *testing.T) {
	c := qt.New(t)

	version := core.ApiVersion{Major: 1, Minor: 2, Patch: 131}
	unpacked := core.UnpackApiVersion(version.PackPatchless())
	c.Assert(unpacked, qt.Equals, core.ApiVersion{Major: 1, Minor: 2})
}

func TestApiVersionAtLeast(t *testing.T) {
	c := qt.New(t)

	v11 := core.ApiVersion{Major: 1, Minor: 1}
	c.Assert(core.ApiVersion{Major: 1, Minor: 2}.AtLeast(v11), qt.IsTrue)
	c.Assert(core.ApiVersion{Major: 2, Minor: 0}.AtLeast(v11), qt.IsTrue)
	c.Assert(core.ApiVersion{Major: 1, Minor: 1, Patch: 99}.AtLeast(v11), qt.IsTrue)
	c.Assert(core.ApiVersion{Major: 1, Minor: 0, Patch: 999}.AtLeast(v11), qt.IsFalse)
}

func TestApiVersionString(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.ApiVersion{Major: 1, Minor: 2, Patch: 131}.String(), qt.Equals, "1.2.131")
}
