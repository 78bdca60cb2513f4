// SPDX-License-Identifier: MIT
package render

import "math"

// Rect is a panel in pixel coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Point is a position in pixel coordinates.
type Point struct {
	X, Y float64
}

// Axis maps data values onto a panel axis.
type Axis struct {
	Min, Max float64
	Log      bool // Logarithmic scale; Min must be positive.
}

// Norm maps v to 0-1. Values outside the range are not clamped.
func (a Axis) Norm(v float64) float64 {
	if a.Log {
		if v <= 0 || a.Min <= 0 {
			return math.NaN()
		}
		return (math.Log10(v) - math.Log10(a.Min)) / (math.Log10(a.Max) - math.Log10(a.Min))
	}
	if a.Max == a.Min {
		return 0.5
	}
	return (v - a.Min) / (a.Max - a.Min)
}

// PlotPoints maps series points into r, skipping points that cannot be
// placed on a logarithmic axis. At most maxPoints points are returned; the
// series is decimated evenly when longer.
func PlotPoints(s Series, r Rect, x, y Axis, maxPoints int) []Point {
	n := s.Len()
	stride := 1
	if maxPoints > 0 && n > maxPoints {
		stride = (n + maxPoints - 1) / maxPoints
	}
	out := make([]Point, 0, n/stride+1)
	for i := 0; i < n; i += stride {
		nx, ny := x.Norm(s.X[i]), y.Norm(s.Y[i])
		if math.IsNaN(nx) || math.IsNaN(ny) {
			continue
		}
		ny = math.Max(0, math.Min(1, ny))
		out = append(out, Point{
			X: r.X + nx*r.W,
			Y: r.Y + (1-ny)*r.H,
		})
	}
	return out
}
