// SPDX-License-Identifier: MIT

// Package pipeline turns a data source into frames for a render.Surface.
// Each pipeline satisfies loop.Pipeline.
package pipeline

import (
	"fmt"

	"liveplot/internal/analysis"
	"liveplot/internal/render"
	"liveplot/internal/source"
	"liveplot/internal/terrain"
	"liveplot/internal/waves"
)

// Series ids written by the spectrum pipeline.
const (
	WaveformID = "waveform"
	SpectrumID = "spectrum"
	BandsID    = "bands"
)

var (
	waveformColor = render.RGBA{R: 0.35, G: 0.8, B: 1, A: 1}
	spectrumColor = render.RGBA{R: 1, G: 0.55, B: 0.2, A: 1}
	bandsColor    = render.RGBA{R: 0.6, G: 1, B: 0.4, A: 1}
)

// Spectrum reads one block per frame and shows its waveform, its spectrum
// and the energy of each named band.
type Spectrum struct {
	src       source.Source
	transform *analysis.Spectrum
	bands     *analysis.BandEnergy
	sampleX   []float64
	freqX     []float64
	bandX     []float64
}

// NewSpectrum wires src to t. The source block size must match the
// transform size.
func NewSpectrum(src source.Source, t *analysis.Spectrum) (*Spectrum, error) {
	if src.BlockSize() != t.Size() {
		return nil, fmt.Errorf("source block size %d does not match transform size %d", src.BlockSize(), t.Size())
	}

	sampleX := make([]float64, src.BlockSize())
	for i := range sampleX {
		sampleX[i] = float64(i)
	}
	freqX := make([]float64, t.Len())
	for k := range freqX {
		freqX[k] = t.FrequencyForBin(k)
	}

	bands := analysis.DefaultBands(t.SampleRate())
	bandX := make([]float64, len(bands))
	for i, b := range bands {
		bandX[i] = b.LowHz
	}

	return &Spectrum{
		src:       src,
		transform: t,
		bands:     analysis.NewBandEnergy(t, bands),
		sampleX:   sampleX,
		freqX:     freqX,
		bandX:     bandX,
	}, nil
}

// Next reads a block, which blocks until the source has one ready. A
// DeviceError from the source is returned unchanged in the chain.
func (p *Spectrum) Next(s render.Surface) error {
	block, err := p.src.Read()
	if err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}
	frame, err := p.transform.Transform(block)
	if err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}

	wave := make([]float64, len(block))
	for i, v := range block {
		wave[i] = float64(v) / analysis.DefaultAmplitudeRange
	}
	energy := make([]float64, len(p.bandX))
	p.bands.Process(energy, frame)

	s.SetLines(WaveformID, render.Series{
		Name:  fmt.Sprintf("waveform rms %.3f", analysis.RMS(block)),
		X:     p.sampleX,
		Y:     wave,
		Color: waveformColor,
	})
	s.SetLines(SpectrumID, render.Series{
		Name:  SpectrumID,
		X:     p.freqX,
		Y:     frame,
		Color: spectrumColor,
	})
	s.SetLines(BandsID, render.Series{
		Name:  BandsID,
		X:     p.bandX,
		Y:     energy,
		Color: bandsColor,
	})
	return nil
}

// Close releases the source.
func (p *Spectrum) Close() error { return p.src.Close() }

// Terrain shows one mesh per frame, scrolling the noise field.
type Terrain struct {
	field *terrain.Field
}

func NewTerrain(f *terrain.Field) *Terrain { return &Terrain{field: f} }

func (p *Terrain) Next(s render.Surface) error {
	s.SetMesh(p.field.Mesh(p.field.Next()))
	return nil
}

func (p *Terrain) Close() error { return nil }

// Waves shows one 3-D series per trace.
type Waves struct {
	field *waves.Field
}

func NewWaves(f *waves.Field) *Waves { return &Waves{field: f} }

func (p *Waves) Next(s render.Surface) error {
	for _, tr := range p.field.Next() {
		s.SetLines(tr.Name, tr)
	}
	return nil
}

func (p *Waves) Close() error { return nil }
