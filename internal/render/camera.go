// SPDX-License-Identifier: MIT
package render

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits the origin of a Z-up scene. Angles are in degrees.
type Camera struct {
	Distance  float64
	Elevation float64
	Azimuth   float64
	FOV       float64
}

// DefaultCamera frames a scene roughly 40 units across.
func DefaultCamera() Camera {
	return Camera{Distance: 40, Elevation: 30, Azimuth: 45, FOV: 60}
}

const nearPlane = 0.1

var (
	axisX = r3.Vec{X: 1}
	axisZ = r3.Vec{Z: 1}
)

// View transforms v into camera space: X right, Z up, Y depth measured from
// the camera.
func (c Camera) View(v r3.Vec) r3.Vec {
	az := r3.NewRotation(-c.Azimuth*math.Pi/180, axisZ)
	el := r3.NewRotation(c.Elevation*math.Pi/180, axisX)
	p := el.Rotate(az.Rotate(v))
	p.Y += c.Distance
	return p
}

// Project maps v to pixel coordinates on a w x h viewport. The returned Z is
// the depth, for back-to-front ordering. ok is false for points behind the
// near plane.
func (c Camera) Project(v r3.Vec, w, h float64) (r3.Vec, bool) {
	p := c.View(v)
	if p.Y < nearPlane {
		return r3.Vec{}, false
	}
	fov := c.FOV
	if fov <= 0 || fov >= 180 {
		fov = 60
	}
	f := (h / 2) / math.Tan(fov*math.Pi/360)
	return r3.Vec{
		X: w/2 + f*p.X/p.Y,
		Y: h/2 - f*p.Z/p.Y,
		Z: p.Y,
	}, true
}

// Triangle is a projected mesh face in pixel coordinates.
type Triangle struct {
	P     [3]r3.Vec
	Color RGBA
	Depth float64 // Mean depth of the corners.
}

// ProjectMesh projects every face of m onto a w x h viewport and orders the
// result back to front. Faces with a corner behind the near plane are
// dropped.
func (c Camera) ProjectMesh(m Mesh, w, h float64) []Triangle {
	projected := make([]r3.Vec, len(m.Vertices))
	visible := make([]bool, len(m.Vertices))
	for i, v := range m.Vertices {
		projected[i], visible[i] = c.Project(v, w, h)
	}

	out := make([]Triangle, 0, len(m.Faces))
	for i, f := range m.Faces {
		if int(f[0]) >= len(projected) || int(f[1]) >= len(projected) || int(f[2]) >= len(projected) {
			continue
		}
		if !visible[f[0]] || !visible[f[1]] || !visible[f[2]] {
			continue
		}
		t := Triangle{P: [3]r3.Vec{projected[f[0]], projected[f[1]], projected[f[2]]}}
		t.Depth = (t.P[0].Z + t.P[1].Z + t.P[2].Z) / 3
		if i < len(m.Colors) {
			t.Color = m.Colors[i]
		} else {
			t.Color = RGBA{R: 1, G: 1, B: 1, A: 1}
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b Triangle) int { return cmp.Compare(b.Depth, a.Depth) })
	return out
}

// ProjectSeries projects the points of a 3-D series. Points behind the near
// plane are reported as not ok and should break the polyline.
func (c Camera) ProjectSeries(s Series, w, h float64) ([]r3.Vec, []bool) {
	n := s.Len()
	pts := make([]r3.Vec, n)
	ok := make([]bool, n)
	for i := range n {
		var z float64
		if i < len(s.Z) {
			z = s.Z[i]
		}
		pts[i], ok[i] = c.Project(r3.Vec{X: s.X[i], Y: s.Y[i], Z: z}, w, h)
	}
	return pts, ok
}
