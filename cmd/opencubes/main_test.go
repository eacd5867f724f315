package main

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Q4LEX/opencubes/core"
)

func TestRunLoopStopsOnFrameError(t *testing.T) {
	c := qt.New(t)

	time := core.NewTime(core.TimeConfiguration{FramesPerSecond: 1000, EventPollDelay: 50})
	defer time.Stop()

	// A failed submit leaves the fence unsignaled, the loop must
	// never attempt a second frame after an error
	frames := 0
	err := runLoop(&time, func() error {
		frames++
		return errors.New("vk.QueueSubmit(): device lost")
	}, func() bool {
		return false
	})

	c.Assert(err, qt.ErrorMatches, `vk\.QueueSubmit\(\): device lost`)
	c.Assert(frames, qt.Equals, 1)
}

func TestRunLoopExitsOnRequest(t *testing.T) {
	c := qt.New(t)

	time := core.NewTime(core.TimeConfiguration{FramesPerSecond: 10, EventPollDelay: 1})
	defer time.Stop()

	err := runLoop(&time, func() error {
		return nil
	}, func() bool {
		return true
	})

	c.Assert(err, qt.IsNil)
}
