// SPDX-License-Identifier: MIT
package source

import (
	"math"
	"sync"
	"time"
)

// Harmonic is one partial of a Sine source.
type Harmonic struct {
	Multiple  float64 // Frequency multiple of the fundamental.
	Amplitude float64 // Relative amplitude (0-1).
}

// Sine generates a fundamental plus harmonics with a continuous phase across
// blocks. Output peaks at Level of the int16 range.
type Sine struct {
	sampleRate float64
	blockSize  int
	frequency  float64
	harmonics  []Harmonic
	phases     []float64 // Radians per harmonic, kept in [0, 2π).
	level      float64

	mu     sync.Mutex
	closed bool
}

// NewSine creates a pure tone source at frequency Hz.
func NewSine(sampleRate float64, blockSize int, frequency float64) *Sine {
	return &Sine{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		frequency:  frequency,
		harmonics:  []Harmonic{{Multiple: 1, Amplitude: 1}},
		phases:     make([]float64, 1),
		level:      0.5, // Headroom against clipping.
	}
}

// HarmonicSeries returns n partials with amplitudes falling as 1/k, the
// spectrum of a band-limited sawtooth. n below 1 yields the fundamental only.
func HarmonicSeries(n int) []Harmonic {
	n = max(1, n)
	out := make([]Harmonic, n)
	for k := range out {
		out[k] = Harmonic{Multiple: float64(k + 1), Amplitude: 1 / float64(k+1)}
	}
	return out
}

// SetHarmonics replaces the partials. Amplitudes are normalised by their sum.
func (g *Sine) SetHarmonics(harmonics []Harmonic) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.harmonics = append([]Harmonic(nil), harmonics...)
	g.phases = make([]float64, len(harmonics))
}

func (g *Sine) Read() (Block, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrClosed
	}

	var total float64
	for _, h := range g.harmonics {
		total += math.Abs(h.Amplitude)
	}
	if total == 0 {
		total = 1
	}

	block := make(Block, g.blockSize)
	for i := range block {
		var sample float64
		for j, h := range g.harmonics {
			sample += h.Amplitude * math.Sin(g.phases[j])
			g.phases[j] += 2 * math.Pi * g.frequency * h.Multiple / g.sampleRate
		}
		block[i] = toInt16(sample / total * g.level)
	}
	for j := range g.phases {
		g.phases[j] = math.Mod(g.phases[j], 2*math.Pi)
	}
	return block, nil
}

func (g *Sine) BlockSize() int { return g.blockSize }

func (g *Sine) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	return nil
}

const sweepFade = 50 * time.Millisecond

// Sweep generates an exponential sine sweep from start to end Hz over
// duration, then wraps. A 50 ms fade at each end hides the wrap
// discontinuity.
type Sweep struct {
	sampleRate float64
	blockSize  int
	startFreq  float64
	endFreq    float64
	duration   float64
	time       float64
	phase      float64

	mu     sync.Mutex
	closed bool
}

// NewSweep creates a sweep source. duration is in seconds.
func NewSweep(sampleRate float64, blockSize int, startFreq, endFreq, duration float64) *Sweep {
	return &Sweep{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		startFreq:  startFreq,
		endFreq:    endFreq,
		duration:   duration,
	}
}

func (g *Sweep) Read() (Block, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrClosed
	}

	fade := min(sweepFade.Seconds(), g.duration/2)
	block := make(Block, g.blockSize)
	dt := 1.0 / g.sampleRate
	for i := range block {
		if g.time >= g.duration {
			g.time = 0
		}
		progress := g.time / g.duration

		freq := g.startFreq * math.Pow(g.endFreq/g.startFreq, progress)
		g.phase += 2 * math.Pi * freq * dt

		block[i] = toInt16(math.Sin(g.phase) * g.envelope(fade) * 0.5)
		g.time += dt
	}
	g.phase = math.Mod(g.phase, 2*math.Pi)
	return block, nil
}

// envelope ramps the level over fade seconds at both ends of a sweep.
func (g *Sweep) envelope(fade float64) float64 {
	if fade <= 0 {
		return 1
	}
	switch {
	case g.time < fade:
		return g.time / fade
	case g.duration-g.time < fade:
		return (g.duration - g.time) / fade
	}
	return 1
}

func (g *Sweep) BlockSize() int { return g.blockSize }

func (g *Sweep) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	return nil
}

// Silence yields all-zero blocks.
type Silence struct {
	blockSize int
	closed    bool
}

func NewSilence(blockSize int) *Silence {
	return &Silence{blockSize: blockSize}
}

func (s *Silence) Read() (Block, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return make(Block, s.blockSize), nil
}

func (s *Silence) BlockSize() int { return s.blockSize }

func (s *Silence) Close() error {
	s.closed = true
	return nil
}

// paced delays each read of a synthetic source until the block would have
// arrived from a device running at the same sample rate.
type paced struct {
	Source
	period time.Duration
	next   time.Time
	sleep  func(time.Duration)
	now    func() time.Time
}

// Paced wraps src so that Read blocks for one block period, matching the
// cadence of a live capture.
func Paced(src Source, sampleRate float64) Source {
	period := time.Duration(float64(time.Second) * float64(src.BlockSize()) / sampleRate)
	return &paced{Source: src, period: period, sleep: time.Sleep, now: time.Now}
}

func (p *paced) Read() (Block, error) {
	now := p.now()
	if p.next.IsZero() {
		p.next = now
	}
	if wait := p.next.Sub(now); wait > 0 {
		p.sleep(wait)
	}
	p.next = p.next.Add(p.period)
	// Do not accumulate a backlog after a slow frame.
	if behind := p.now().Sub(p.next); behind > p.period {
		p.next = p.now()
	}
	return p.Source.Read()
}

func toInt16(v float64) int16 {
	s := math.Round(v * math.MaxInt16)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
