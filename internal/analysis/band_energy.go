package analysis

import (
	"math"
)

// FrequencyBand defines the name and frequency range for an energy band.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands returns the named bands shown next to the spectrum, up to the
// Nyquist frequency.
func DefaultBands(sampleRate float64) []FrequencyBand {
	return []FrequencyBand{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: sampleRate / 2},
	}
}

// BandEnergy groups frame bins into frequency bands. Only bins up to the
// Nyquist frequency are considered, so mirrored bins are not counted twice.
type BandEnergy struct {
	bands  []FrequencyBand
	freqs  FrequencyProvider
	energy []float64
	counts []int
}

// NewBandEnergy creates a grouping for frames produced by freqs.
func NewBandEnergy(freqs FrequencyProvider, bands []FrequencyBand) *BandEnergy {
	return &BandEnergy{
		bands:  bands,
		freqs:  freqs,
		energy: make([]float64, len(bands)),
		counts: make([]int, len(bands)),
	}
}

// Bands returns the configured bands.
func (p *BandEnergy) Bands() []FrequencyBand { return p.bands }

// Process writes the RMS magnitude of each band into dst, which must have one
// entry per band. Bands that contain no bins read 0.
func (p *BandEnergy) Process(dst []float64, frame Frame) {
	for i := range p.bands {
		p.energy[i] = 0
		p.counts[i] = 0
	}

	positive := min(len(frame), p.freqs.Size()/2+1)
	for k := range positive {
		freq := p.freqs.FrequencyForBin(k)
		for i, band := range p.bands {
			if freq >= band.LowHz && freq < band.HighHz {
				p.energy[i] += frame[k] * frame[k]
				p.counts[i]++
				break
			}
		}
	}

	for i := range p.bands {
		if i >= len(dst) {
			return
		}
		dst[i] = 0
		if p.counts[i] > 0 {
			dst[i] = math.Sqrt(p.energy[i] / float64(p.counts[i]))
		}
	}
}

// LogBands averages the positive bins of frame into n logarithmically spaced
// bands, the layout a bar display uses. Bin 0 (DC) is skipped.
func LogBands(dst []float64, frame Frame, size int) {
	maxBin := min(size/2, len(frame))
	n := len(dst)
	for b := range n {
		lo := int(math.Pow(float64(maxBin), float64(b)/float64(n)))
		hi := int(math.Pow(float64(maxBin), float64(b+1)/float64(n)))
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > maxBin {
			hi = maxBin
		}

		sum := 0.0
		count := 0
		for i := lo; i < hi; i++ {
			sum += frame[i]
			count++
		}
		dst[b] = 0
		if count > 0 {
			dst[b] = sum / float64(count)
		}
	}
}
