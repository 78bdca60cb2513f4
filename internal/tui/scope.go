// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"liveplot/internal/analysis"
	"liveplot/internal/pipeline"
	"liveplot/internal/render"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("#3C3C3C")).Padding(0, 1)

	quitKeys = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))
)

// snapshot is one flushed frame as the model sees it.
type snapshot struct {
	lines []render.Series
	mesh  *render.Mesh
}

type frameMsg snapshot

// ScopeModel is the bubbletea model behind Scope. It only ever renders the
// latest frame it was sent.
type ScopeModel struct {
	title  string
	width  int
	height int
	snap   snapshot
	bars   springField
	levels []float64 // Smoothed spectrum bars, 0-1.
	frames int
	start  time.Time
	now    func() time.Time
}

func NewScopeModel(title string) ScopeModel {
	return ScopeModel{
		title:  title,
		width:  80,
		height: 24,
		bars:   newSpringField(60, 8.0, 0.9),
		now:    time.Now,
	}
}

func (m ScopeModel) Init() tea.Cmd { return nil }

func (m ScopeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			return m, tea.Quit
		}

	case frameMsg:
		if m.frames == 0 {
			m.start = m.now()
		}
		m.frames++
		m.snap = snapshot(msg)
		for _, s := range m.snap.lines {
			if s.Name == pipeline.SpectrumID {
				m.levels = m.smoothBars(s.Y)
			}
		}
	}
	return m, nil
}

// Frames is the number of frames received.
func (m ScopeModel) Frames() int { return m.frames }

func (m ScopeModel) View() string {
	var sections []string
	sections = append(sections, titleStyle.Render(m.title))

	width := max(m.width-2, 8)
	// Title and status take two rows each with spacing.
	avail := max(m.height-4, 4)

	var traces []render.Series
	for _, s := range m.snap.lines {
		switch {
		case s.Is3D():
			traces = append(traces, s)
		case s.Name == pipeline.SpectrumID:
			sections = append(sections, m.renderSpectrum(s, width, avail/2)...)
		case s.Name == pipeline.BandsID:
			sections = append(sections, renderBands(s))
		default:
			sections = append(sections,
				labelStyle.Render(s.Name),
				lipgloss.NewStyle().Foreground(hexColor(s.Color)).Render(sparkline(s.Y, width, -1, 1)))
		}
	}
	if len(traces) > 0 {
		sections = append(sections, renderTraces(traces, width, avail)...)
	}
	if m.snap.mesh != nil {
		sections = append(sections, heightmap(*m.snap.mesh, width, avail)...)
	}

	sections = append(sections, statusStyle.Render(m.status()))
	return strings.Join(sections, "\n")
}

func (m ScopeModel) status() string {
	fps := 0.0
	if m.frames > 1 {
		if elapsed := m.now().Sub(m.start); elapsed > 0 {
			fps = float64(m.frames-1) / elapsed.Seconds()
		}
	}
	return fmt.Sprintf("frames %d • %.0f FPS • q: Quit", m.frames, fps)
}

// smoothBars groups the bins into log-spaced bars and eases each bar
// towards its new level.
func (m *ScopeModel) smoothBars(bins []float64) []float64 {
	n := max((m.width-2)/3, 1)
	levels := make([]float64, n)
	analysis.LogBands(levels, analysis.Frame(bins), 2*len(bins))

	peak := 0.01
	for _, v := range levels {
		peak = math.Max(peak, v)
	}
	m.bars.resize(n)
	for i := range levels {
		levels[i] = math.Max(0, math.Min(1, m.bars.step(i, levels[i]/peak)))
	}
	return levels
}

func (m ScopeModel) renderSpectrum(s render.Series, width, height int) []string {
	style := lipgloss.NewStyle().Foreground(hexColor(s.Color))
	out := []string{labelStyle.Render(s.Name)}
	for _, r := range bars(m.levels, width, max(height, 1)) {
		out = append(out, style.Render(r))
	}
	return out
}

func renderBands(s render.Series) string {
	bands := analysis.DefaultBands(0)
	var sb strings.Builder
	for i, v := range s.Y {
		name := fmt.Sprintf("b%d", i)
		if i < len(bands) {
			name = bands[i].Name
		}
		// Band RMS is small; scale so a loud band fills the meter.
		level := math.Min(1, v*20)
		ch := barChars[int(math.Round(level*float64(len(barChars)-1)))]
		fmt.Fprintf(&sb, "%s %c  ", labelStyle.Render(name), ch)
	}
	return sb.String()
}

// renderTraces draws one sparkline per trace, as many as fit.
func renderTraces(traces []render.Series, width, height int) []string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, tr := range traces {
		for _, z := range tr.Z {
			lo = math.Min(lo, z)
			hi = math.Max(hi, z)
		}
	}
	step := max(len(traces)/max(height, 1), 1)
	var out []string
	for i := 0; i < len(traces) && len(out) < height; i += step {
		tr := traces[i]
		out = append(out, lipgloss.NewStyle().Foreground(hexColor(tr.Color)).Render(sparkline(tr.Z, width, lo, hi)))
	}
	return out
}

// Scope is a render.Surface drawing into the terminal through a bubbletea
// program running in its own goroutine. Flush hands the frame over with
// Program.Send; once the user quits, Flush reports render.ErrDisplayClosed.
type Scope struct {
	program *tea.Program
	lines   map[string]render.Series
	order   []string
	mesh    *render.Mesh

	done      chan struct{}
	closed    atomic.Bool
	runErr    error
	closeOnce sync.Once
}

var _ render.Surface = (*Scope)(nil)

// NewScope starts the program in the alternate screen. opts are appended
// to the defaults.
func NewScope(title string, opts ...tea.ProgramOption) *Scope {
	s := &Scope{
		lines: make(map[string]render.Series),
		done:  make(chan struct{}),
	}
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	s.program = tea.NewProgram(NewScopeModel(title), opts...)

	go func() {
		_, err := s.program.Run()
		s.runErr = err
		s.closed.Store(true)
		close(s.done)
	}()
	return s
}

func (s *Scope) SetLines(id string, series render.Series) {
	if _, ok := s.lines[id]; !ok {
		s.order = append(s.order, id)
	}
	s.lines[id] = series
}

func (s *Scope) SetMesh(m render.Mesh) { s.mesh = &m }

func (s *Scope) Flush() error {
	if s.closed.Load() {
		return render.ErrDisplayClosed
	}
	snap := snapshot{lines: make([]render.Series, 0, len(s.order)), mesh: s.mesh}
	for _, id := range s.order {
		snap.lines = append(snap.lines, s.lines[id])
	}
	s.program.Send(frameMsg(snap))
	return nil
}

// Close quits the program if it is still running and waits for the terminal
// to be restored.
func (s *Scope) Close() error {
	s.closeOnce.Do(func() {
		if !s.closed.Load() {
			s.program.Quit()
		}
		<-s.done
	})
	if s.runErr != nil && s.runErr != tea.ErrProgramKilled {
		return fmt.Errorf("terminal UI: %w", s.runErr)
	}
	return nil
}
