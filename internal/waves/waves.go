// SPDX-License-Identifier: MIT

// Package waves animates a stack of sine traces laid out across the Y axis,
// each with its own amplitude and frequency.
package waves

import (
	"fmt"
	"math"

	"liveplot/internal/render"

	"github.com/lucasb-eyer/go-colorful"
)

// Options configures a Field.
type Options struct {
	Lines     int
	Points    int
	Extent    float64 // X and Y span [-Extent, Extent].
	PhaseStep float64 // Phase change after each trace.
}

// Field produces one frame of traces per call to Next.
type Field struct {
	opts   Options
	x      []float64
	y      []float64
	colors []render.RGBA
	phase  float64
}

// New creates a field with phase 0.
func New(opts Options) (*Field, error) {
	if opts.Lines < 1 || opts.Points < 2 {
		return nil, fmt.Errorf("waves need at least 1 line of 2 points, got %d x %d", opts.Lines, opts.Points)
	}
	f := &Field{
		opts:   opts,
		x:      linspace(-opts.Extent, opts.Extent, opts.Points),
		y:      linspace(-opts.Extent, opts.Extent, opts.Lines),
		colors: make([]render.RGBA, opts.Lines),
	}
	// Spread hues over a little less than the full wheel so the last trace
	// does not wrap back to the first colour.
	hues := float64(opts.Lines) * 1.3
	for i := range f.colors {
		c := colorful.Hsv(360*float64(i)/hues, 1, 1)
		f.colors[i] = render.RGBA{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: 1}
	}
	return f, nil
}

// Phase is the phase the next trace will use.
func (f *Field) Phase() float64 { return f.phase }

// Next returns one 3-D series per line. Trace i follows
// z = (10/(i+1)) * sin(x*(i+1)/10 - (phase*(i+1) - 10)).
func (f *Field) Next() []render.Series {
	out := make([]render.Series, f.opts.Lines)
	for i := range out {
		k := float64(i + 1)
		amp := 10 / k
		shift := f.phase*k - 10

		ys := make([]float64, f.opts.Points)
		zs := make([]float64, f.opts.Points)
		for j, x := range f.x {
			ys[j] = f.y[i]
			zs[j] = amp * math.Sin(x*k/10-shift)
		}
		out[i] = render.Series{
			Name:  fmt.Sprintf("trace-%d", i),
			X:     f.x,
			Y:     ys,
			Z:     zs,
			Color: f.colors[i],
		}
		f.phase += f.opts.PhaseStep
	}
	return out
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
