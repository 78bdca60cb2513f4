// SPDX-License-Identifier: MIT

// Package window draws frames in a desktop window. The window owns the main
// goroutine while it is open and drives the session from its update loop.
package window

import (
	"errors"
	"time"

	"liveplot/internal/render"
)

// ErrUnavailable is returned by builds without a windowing backend.
var ErrUnavailable = errors.New("window surface is not available in this build")

// Options configures New.
type Options struct {
	Title      string
	Width      int
	Height     int
	Interval   time.Duration // Update period; 0 updates at the display rate.
	Camera     render.Camera
	SampleRate float64 // Upper bound of the spectrum frequency axis is SampleRate/2.
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "liveplot"
	}
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 768
	}
	if o.Camera == (render.Camera{}) {
		o.Camera = render.DefaultCamera()
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 44100
	}
	return o
}

// ticksPerSecond converts an update interval to a tick rate, or 0 to follow
// the display refresh.
func ticksPerSecond(interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	tps := int(time.Second / interval)
	return max(1, tps)
}
