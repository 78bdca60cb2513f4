package tui

import (
	"math"
	"strings"

	"liveplot/internal/render"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// springField smooths bar heights between frames.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int, frequency, damping float64) springField {
	return springField{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return p
}

// resample reduces values to width columns, keeping the sample of largest
// magnitude in each column so peaks survive.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	if len(values) == 0 || width <= 0 {
		return out
	}
	for col := range out {
		lo := col * len(values) / width
		hi := max((col+1)*len(values)/width, lo+1)
		hi = min(hi, len(values))
		best := 0.0
		for _, v := range values[lo:hi] {
			if math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		out[col] = best
	}
	return out
}

// sparkline renders values as one row of block characters scaled from
// [lo, hi].
func sparkline(values []float64, width int, lo, hi float64) string {
	if width <= 0 {
		return ""
	}
	cols := resample(values, width)
	span := hi - lo
	var sb strings.Builder
	for _, v := range cols {
		t := 0.0
		if span > 0 {
			t = (v - lo) / span
		}
		t = math.Max(0, math.Min(1, t))
		sb.WriteRune(barChars[1+int(math.Round(t*float64(len(barChars)-2)))])
	}
	return sb.String()
}

// bars renders levels in 0-1 as vertical bars filling width x height.
func bars(levels []float64, width, height int) []string {
	if height < 1 {
		height = 1
	}
	cols := len(levels)
	if cols == 0 {
		return make([]string, height)
	}
	colWidth := max(width/cols, 1)
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	rows := make([]string, height)
	for row := range height {
		var line strings.Builder
		for b := range cols {
			if b > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			level := levels[b] * float64(height)
			rowFromBottom := float64(height - 1 - row)
			charIdx := 0
			if level > rowFromBottom+1 {
				charIdx = len(barChars) - 1
			} else if level > rowFromBottom {
				frac := level - rowFromBottom
				charIdx = int(frac * float64(len(barChars)-1))
			}
			ch := barChars[charIdx]
			for range max(colWidth-gap, 1) {
				line.WriteRune(ch)
			}
		}
		rows[row] = line.String()
	}
	return rows
}

// heightmap renders a mesh from above: one cell per vertex, shaded by
// elevation and tinted with the colour of the cell's first face.
func heightmap(m render.Mesh, width, height int) []string {
	if m.Rows < 1 || m.Cols < 1 || len(m.Vertices) < m.Rows*m.Cols {
		return nil
	}
	rows := min(m.Rows, height)
	cols := min(m.Cols, width)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range m.Vertices {
		lo = math.Min(lo, v.Z)
		hi = math.Max(hi, v.Z)
	}
	span := hi - lo

	black := colorful.Color{}
	out := make([]string, rows)
	for r := range rows {
		gr := r * m.Rows / rows
		var sb strings.Builder
		for c := range cols {
			gc := c * m.Cols / cols
			t := 0.5
			if span > 0 {
				t = (m.Vertices[gr*m.Cols+gc].Z - lo) / span
			}
			base := colorful.Color{R: 0.6, G: 0.6, B: 0.6}
			face := (min(gr, m.Rows-2)*(m.Cols-1) + min(gc, m.Cols-2)) * 2
			if face >= 0 && face < len(m.Colors) {
				fc := m.Colors[face]
				base = colorful.Color{R: float64(fc.R), G: float64(fc.G), B: float64(fc.B)}
			}
			shade := base.BlendLab(black, 0.75*(1-t)).Clamped()
			ch := barChars[1+int(math.Round(t*float64(len(barChars)-2)))]
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(shade.Hex())).Render(string(ch)))
		}
		out[r] = sb.String()
	}
	return out
}

// hexColor converts a series colour for lipgloss.
func hexColor(c render.RGBA) lipgloss.Color {
	return lipgloss.Color(colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped().Hex())
}
