package analysis

import (
	"math"
	"testing"

	"liveplot/internal/source"
	"liveplot/pkg/utils"
)

func TestBandEnergyFindsToneBand(t *testing.T) {
	s := newTestSpectrum(t, testFFTSize, FullBins)
	// Bin 23 is about 990Hz, inside the "mid" band.
	freq := 23.0 * testSampleRate / testFFTSize
	frame, _ := s.Transform(source.Block(utils.GenerateSineWave(testFFTSize, testSampleRate, freq, 0.5)))

	be := NewBandEnergy(s, DefaultBands(testSampleRate))
	out := make([]float64, len(be.Bands()))
	be.Process(out, frame)

	loudest := 0
	for i := range out {
		if out[i] > out[loudest] {
			loudest = i
		}
	}
	if name := be.Bands()[loudest].Name; name != "mid" {
		t.Errorf("loudest band = %q (%v), want mid", name, out)
	}
}

func TestBandEnergySilence(t *testing.T) {
	s := newTestSpectrum(t, 256, HalfBins)
	be := NewBandEnergy(s, DefaultBands(testSampleRate))
	out := []float64{9, 9, 9, 9, 9, 9}
	be.Process(out, make(Frame, s.Len()))
	for i, v := range out {
		if v != 0 {
			t.Errorf("band %d = %g, want 0", i, v)
		}
	}
}

func TestLogBands(t *testing.T) {
	frame := make(Frame, 64)
	for i := range frame {
		frame[i] = 1
	}
	dst := make([]float64, 8)
	LogBands(dst, frame, 64)
	for i, v := range dst {
		if v != 1 {
			t.Errorf("band %d = %g, want 1", i, v)
		}
	}
}

func TestRMSAndPeak(t *testing.T) {
	tests := []struct {
		name  string
		block source.Block
		rms   float64
		peak  float64
	}{
		{"empty", nil, 0, 0},
		{"silence", source.Block{0, 0, 0, 0}, 0, 0},
		{"square", source.Block{-32768, -32768, -32768, -32768}, 1, 1},
		{"half", source.Block{16384, -16384}, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.block); !utils.ApproxEqual(got, tt.rms, 1e-12) {
				t.Errorf("RMS = %g, want %g", got, tt.rms)
			}
			if got := Peak(tt.block); !utils.ApproxEqual(got, tt.peak, 1e-12) {
				t.Errorf("Peak = %g, want %g", got, tt.peak)
			}
		})
	}

	sine := source.Block(utils.GenerateSineWave(4410, testSampleRate, 100, 1))
	if got := RMS(sine); !utils.ApproxEqual(got, 1/math.Sqrt2, 1e-3) {
		t.Errorf("RMS(full-scale sine) = %g, want %g", got, 1/math.Sqrt2)
	}
}
