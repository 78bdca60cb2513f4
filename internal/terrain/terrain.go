// SPDX-License-Identifier: MIT

// Package terrain animates a height field sampled from 2-D OpenSimplex noise
// and triangulates it for display. The grid topology is fixed; only the
// elevations change from frame to frame.
package terrain

import (
	"fmt"

	"liveplot/internal/render"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configures a Field.
type Options struct {
	Rows      int
	Cols      int
	Spacing   float64 // Distance between neighbouring vertices.
	Scale     float64 // Noise coordinates per grid step.
	Amplitude float64 // Peak elevation.
	Step      float64 // Offset change per frame.
	Seed      int64
}

// HeightField holds one elevation per vertex in row-major order.
type HeightField struct {
	Rows int
	Cols int
	Z    []float64
}

// At returns the elevation of vertex (r, c).
func (h HeightField) At(r, c int) float64 { return h.Z[r*h.Cols+c] }

// Field is the Terrain Field. It is not safe for concurrent use.
type Field struct {
	opts   Options
	noise  opensimplex.Noise
	offset float64
	faces  [][3]uint32
	colors []render.RGBA
}

// New creates a field. The offset starts at 0.
func New(opts Options) (*Field, error) {
	if opts.Rows < 2 || opts.Cols < 2 {
		return nil, fmt.Errorf("terrain grid must be at least 2x2, got %dx%d", opts.Rows, opts.Cols)
	}
	if opts.Spacing == 0 {
		opts.Spacing = 1
	}
	return &Field{
		opts:   opts,
		noise:  opensimplex.New(opts.Seed),
		faces:  Triangulate(opts.Rows, opts.Cols),
		colors: FaceColors(opts.Rows, opts.Cols),
	}, nil
}

// Elevation returns the height of vertex (r, c) at the given offset.
func (f *Field) Elevation(r, c int, offset float64) float64 {
	x := float64(c)*f.opts.Scale + offset
	y := float64(r)*f.opts.Scale + offset
	return f.opts.Amplitude * f.noise.Eval2(x, y)
}

// Frame evaluates the whole grid at offset. It does not change the field.
func (f *Field) Frame(offset float64) HeightField {
	h := HeightField{Rows: f.opts.Rows, Cols: f.opts.Cols, Z: make([]float64, f.opts.Rows*f.opts.Cols)}
	for r := range f.opts.Rows {
		for c := range f.opts.Cols {
			h.Z[r*f.opts.Cols+c] = f.Elevation(r, c, offset)
		}
	}
	return h
}

// Next returns the frame at the current offset, then advances the offset by
// one step.
func (f *Field) Next() HeightField {
	h := f.Frame(f.offset)
	f.offset += f.opts.Step
	return h
}

// Offset is the offset the next call to Next will use.
func (f *Field) Offset() float64 { return f.offset }

// Mesh builds a displayable mesh from h. Vertices are centred on the origin
// in X and Y; faces and colours are shared between frames.
func (f *Field) Mesh(h HeightField) render.Mesh {
	vertices := make([]r3.Vec, len(h.Z))
	x0 := -float64(h.Cols-1) / 2 * f.opts.Spacing
	y0 := -float64(h.Rows-1) / 2 * f.opts.Spacing
	for r := range h.Rows {
		for c := range h.Cols {
			vertices[r*h.Cols+c] = r3.Vec{
				X: x0 + float64(c)*f.opts.Spacing,
				Y: y0 + float64(r)*f.opts.Spacing,
				Z: h.At(r, c),
			}
		}
	}
	return render.Mesh{
		Rows:     h.Rows,
		Cols:     h.Cols,
		Vertices: vertices,
		Faces:    f.faces,
		Colors:   f.colors,
	}
}

// Triangulate returns the faces of a rows x cols grid: two triangles per
// cell, split along the same diagonal, with row-major vertex indices.
func Triangulate(rows, cols int) [][3]uint32 {
	if rows < 2 || cols < 2 {
		return nil
	}
	faces := make([][3]uint32, 0, (rows-1)*(cols-1)*2)
	for r := range rows - 1 {
		for c := range cols - 1 {
			i := uint32(r*cols + c)
			C := uint32(cols)
			faces = append(faces,
				[3]uint32{i, i + C, i + C + 1},
				[3]uint32{i, i + 1, i + C + 1},
			)
		}
	}
	return faces
}

// FaceColors returns one colour per face of Triangulate(rows, cols). Red
// fades and green grows across columns, blue grows down rows; the second
// triangle of each cell is slightly more opaque.
func FaceColors(rows, cols int) []render.RGBA {
	if rows < 2 || cols < 2 {
		return nil
	}
	colors := make([]render.RGBA, 0, (rows-1)*(cols-1)*2)
	for r := range rows - 1 {
		for c := range cols - 1 {
			red := float32(c) / float32(cols)
			blue := float32(r) / float32(rows)
			colors = append(colors,
				render.RGBA{R: red, G: 1 - red, B: blue, A: 0.7},
				render.RGBA{R: red, G: 1 - red, B: blue, A: 0.8},
			)
		}
	}
	return colors
}
