// SPDX-License-Identifier: MIT

// Package render defines what a frame looks like on its way to a display:
// named line series and triangle meshes. A Surface owns the render state
// (figure, axes, buffers); the loop only writes to it.
package render

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDisplayClosed is returned by Flush once the user has closed the display.
// It is a normal stop condition, not a fault.
var ErrDisplayClosed = errors.New("display closed")

// RGBA is a colour with components in 0-1.
type RGBA struct {
	R, G, B, A float32
}

// Series is one polyline. Z is nil for 2-D series.
type Series struct {
	Name  string
	X     []float64
	Y     []float64
	Z     []float64
	Color RGBA
}

// Len is the number of points in the series.
func (s Series) Len() int { return min(len(s.X), len(s.Y)) }

// Is3D reports whether the series carries a Z coordinate per point.
func (s Series) Is3D() bool { return len(s.Z) >= s.Len() && s.Len() > 0 }

// Mesh is an indexed triangle mesh over a Rows x Cols vertex grid.
type Mesh struct {
	Rows     int
	Cols     int
	Vertices []r3.Vec
	Faces    [][3]uint32
	Colors   []RGBA // One per face.
}

// Surface is the display boundary. Implementations keep their own state
// between frames; SetLines and SetMesh replace the data of the next Flush.
type Surface interface {
	SetLines(id string, s Series)
	SetMesh(m Mesh)
	// Flush presents pending updates. It returns ErrDisplayClosed when the
	// user has closed the display.
	Flush() error
	Close() error
}
