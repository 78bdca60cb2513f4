//go:build !headless

// SPDX-License-Identifier: MIT
package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	applog "liveplot/internal/log"
	"liveplot/internal/loop"
	"liveplot/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

const (
	maxPlotPoints  = 1024
	maxTracePoints = 256
	// Each batch of DrawTriangles is limited by 16-bit indices.
	maxBatchVertices = 65535 / 3 * 3
)

var (
	background = color.RGBA{12, 12, 18, 255}
	gridColor  = color.RGBA{60, 60, 72, 255}
	labelColor = color.RGBA{200, 200, 210, 255}
)

// Window is an ebiten game that implements render.Surface. All methods run
// on the ebiten update goroutine: the session ticks from Update, so the
// pipeline writes series and meshes on the same goroutine that draws them.
type Window struct {
	opts Options

	// Pending state written by the pipeline, promoted on Flush.
	lines map[string]render.Series
	mesh  *render.Mesh

	shownLines map[string]render.Series
	shownIDs   []string
	shownMesh  *render.Mesh

	session *loop.Session
	ctx     context.Context
	closed  bool

	white    *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

var _ render.Surface = (*Window)(nil)

// New prepares a window. Nothing is shown until Run.
func New(opts Options) (*Window, error) {
	opts = opts.withDefaults()

	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)

	return &Window{
		opts:       opts,
		lines:      make(map[string]render.Series),
		shownLines: make(map[string]render.Series),
		white:      white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
	}, nil
}

// SetLines implements render.Surface.
func (w *Window) SetLines(id string, s render.Series) { w.lines[id] = s }

// SetMesh implements render.Surface.
func (w *Window) SetMesh(m render.Mesh) { w.mesh = &m }

// Flush implements render.Surface.
func (w *Window) Flush() error {
	if w.closed {
		return render.ErrDisplayClosed
	}
	for id, s := range w.lines {
		w.shownLines[id] = s
	}
	w.shownIDs = w.shownIDs[:0]
	for id := range w.shownLines {
		w.shownIDs = append(w.shownIDs, id)
	}
	slices.Sort(w.shownIDs)
	if w.mesh != nil {
		w.shownMesh = w.mesh
	}
	return nil
}

// Close implements render.Surface. The window itself is torn down when
// Update returns ebiten.Termination.
func (w *Window) Close() error {
	w.closed = true
	return nil
}

// Run opens the window and drives s from the update loop until the session
// stops, the window is closed or ctx is cancelled. It must be called from
// the main goroutine.
func (w *Window) Run(ctx context.Context, s *loop.Session) (loop.Summary, error) {
	w.ctx = ctx
	w.session = s

	ebiten.SetWindowSize(w.opts.Width, w.opts.Height)
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizable(true)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetRunnableOnUnfocused(true)
	if tps := ticksPerSecond(w.opts.Interval); tps > 0 {
		ebiten.SetTPS(tps)
	} else {
		ebiten.SetTPS(ebiten.SyncWithFPS)
	}

	if s.State() == loop.Idle {
		if err := s.Start(); err != nil {
			return s.Summary(), err
		}
	}

	applog.Infof("Window: opening %dx%d %q", w.opts.Width, w.opts.Height, w.opts.Title)
	err := ebiten.RunGame(w)
	if s.State() == loop.Running {
		if err != nil && !errors.Is(err, ebiten.Termination) {
			applog.Errorf("Window: %v", err)
		}
		s.Stop(loop.ReasonClosed)
	}
	sum := s.Summary()
	if sum.Err == nil && err != nil && !errors.Is(err, ebiten.Termination) {
		return sum, fmt.Errorf("window: %w", err)
	}
	return sum, sum.Err
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		_ = w.session.Dispatch(loop.Event{Kind: loop.EventClose})
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		_ = w.session.Dispatch(loop.Event{Kind: loop.EventClose})
		return ebiten.Termination
	}
	select {
	case <-w.ctx.Done():
		_ = w.session.Dispatch(loop.Event{Kind: loop.EventInterrupt})
		return ebiten.Termination
	default:
	}

	if w.session.State() != loop.Running {
		return ebiten.Termination
	}
	_ = w.session.Tick()
	if w.session.State() != loop.Running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	bounds := screen.Bounds()
	full := render.Rect{W: float64(bounds.Dx()), H: float64(bounds.Dy())}

	var flat, traces []string
	for _, id := range w.shownIDs {
		if w.shownLines[id].Is3D() {
			traces = append(traces, id)
		} else {
			flat = append(flat, id)
		}
	}

	scene := full
	if len(flat) > 0 && (w.shownMesh != nil || len(traces) > 0) {
		scene.W = full.W / 2
		full.X, full.W = full.W/2, full.W/2
	}
	if w.shownMesh != nil {
		w.drawMesh(screen, *w.shownMesh, scene)
	}
	for _, id := range traces {
		w.drawTrace(screen, w.shownLines[id], scene)
	}
	if len(flat) > 0 {
		panelH := full.H / float64(len(flat))
		for i, id := range flat {
			panel := render.Rect{X: full.X + 8, Y: full.Y + float64(i)*panelH + 20, W: full.W - 16, H: panelH - 32}
			w.drawPanel(screen, id, w.shownLines[id], panel)
		}
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("frames %d  TPS %.0f  FPS %.0f",
		w.session.Frames(), ebiten.ActualTPS(), ebiten.ActualFPS()))
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (w *Window) drawPanel(screen *ebiten.Image, id string, s render.Series, r render.Rect) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	x, y := w.axes(id, s)

	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 1, gridColor, false)
	label := s.Name
	if label == "" {
		label = id
	}
	text.Draw(screen, label, basicfont.Face7x13, int(r.X), int(r.Y)-4, labelColor)

	pts := render.PlotPoints(s, r, x, y, min(maxPlotPoints, int(r.W)))
	clr := seriesColor(s)
	for i := 1; i < len(pts); i++ {
		vector.StrokeLine(screen,
			float32(pts[i-1].X), float32(pts[i-1].Y),
			float32(pts[i].X), float32(pts[i].Y),
			1, clr, true)
	}
}

// axes picks the data ranges for a flat panel. Spectra use a logarithmic
// frequency axis.
func (w *Window) axes(id string, s render.Series) (render.Axis, render.Axis) {
	switch id {
	case "spectrum", "bands":
		return render.Axis{Min: 20, Max: w.opts.SampleRate / 2, Log: true}, render.Axis{Min: 0, Max: 0.5}
	}
	x := render.Axis{Min: 0, Max: 1}
	if n := s.Len(); n > 0 {
		x = render.Axis{Min: s.X[0], Max: s.X[n-1]}
	}
	return x, render.Axis{Min: -1, Max: 1}
}

func (w *Window) drawTrace(screen *ebiten.Image, s render.Series, r render.Rect) {
	step := max(1, s.Len()/maxTracePoints)
	decimated := render.Series{X: make([]float64, 0, maxTracePoints+1), Y: make([]float64, 0, maxTracePoints+1), Z: make([]float64, 0, maxTracePoints+1)}
	for i := 0; i < s.Len(); i += step {
		decimated.X = append(decimated.X, s.X[i])
		decimated.Y = append(decimated.Y, s.Y[i])
		decimated.Z = append(decimated.Z, s.Z[i])
	}
	pts, ok := w.opts.Camera.ProjectSeries(decimated, r.W, r.H)
	clr := seriesColor(s)
	for i := 1; i < len(pts); i++ {
		if !ok[i-1] || !ok[i] {
			continue
		}
		vector.StrokeLine(screen,
			float32(r.X+pts[i-1].X), float32(r.Y+pts[i-1].Y),
			float32(r.X+pts[i].X), float32(r.Y+pts[i].Y),
			1.5, clr, true)
	}
}

func (w *Window) drawMesh(screen *ebiten.Image, m render.Mesh, r render.Rect) {
	tris := w.opts.Camera.ProjectMesh(m, r.W, r.H)
	w.vertices = w.vertices[:0]
	w.indices = w.indices[:0]

	flush := func() {
		if len(w.vertices) == 0 {
			return
		}
		screen.DrawTriangles(w.vertices, w.indices, w.white, &ebiten.DrawTrianglesOptions{})
		w.vertices = w.vertices[:0]
		w.indices = w.indices[:0]
	}

	for _, t := range tris {
		if len(w.vertices)+3 > maxBatchVertices {
			flush()
		}
		for _, p := range t.P {
			w.indices = append(w.indices, uint16(len(w.vertices)))
			w.vertices = append(w.vertices, ebiten.Vertex{
				DstX:   float32(r.X + p.X),
				DstY:   float32(r.Y + p.Y),
				SrcX:   1.5,
				SrcY:   1.5,
				ColorR: t.Color.R,
				ColorG: t.Color.G,
				ColorB: t.Color.B,
				ColorA: t.Color.A,
			})
		}
	}
	flush()
}

func seriesColor(s render.Series) color.Color {
	c := s.Color
	if c == (render.RGBA{}) {
		return labelColor
	}
	clamp := func(v float32) uint8 {
		return uint8(math.Round(float64(max(0, min(1, v))) * 255))
	}
	return color.NRGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}
