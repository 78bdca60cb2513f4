// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"io"
	"os"
	"testing"

	applog "liveplot/internal/log"
	"liveplot/internal/source"
	"liveplot/pkg/utils"
)

const (
	testFFTSize    = 1024
	testSampleRate = 44100
)

func TestMain(m *testing.M) {
	applog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestSpectrum(t testing.TB, size int, bins Bins) *Spectrum {
	t.Helper()
	s, err := NewSpectrum(SpectrumOptions{Size: size, SampleRate: testSampleRate, Bins: bins})
	if err != nil {
		t.Fatalf("NewSpectrum(%d): %v", size, err)
	}
	return s
}

func TestSpectrumSilenceIsZero(t *testing.T) {
	for _, bins := range []Bins{FullBins, HalfBins} {
		for _, size := range []int{2, 3, 4, 8, 64, 2048} {
			s := newTestSpectrum(t, size, bins)
			frame, err := s.Transform(make(source.Block, size))
			if err != nil {
				t.Fatalf("%s/%d: Transform: %v", bins, size, err)
			}
			for k, v := range frame {
				if v != 0 {
					t.Fatalf("%s/%d: bin %d = %g, want 0", bins, size, k, v)
				}
			}
		}
	}
}

func TestSpectrumLengthAndSign(t *testing.T) {
	tests := []struct {
		name string
		size int
		bins Bins
		want int
	}{
		{"full 4", 4, FullBins, 4},
		{"half 4", 4, HalfBins, 2},
		{"full 1024", 1024, FullBins, 1024},
		{"half 1024", 1024, HalfBins, 512},
		{"full odd", 5, FullBins, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSpectrum(t, tt.size, tt.bins)
			block := source.Block(utils.GenerateComplexWave(tt.size, testSampleRate))
			frame, err := s.Transform(block)
			if err != nil {
				t.Fatal(err)
			}
			if len(frame) != tt.want || s.Len() != tt.want {
				t.Fatalf("len = %d, Len() = %d, want %d", len(frame), s.Len(), tt.want)
			}
			for k, v := range frame {
				if v < 0 {
					t.Errorf("bin %d = %g is negative", k, v)
				}
			}
		})
	}
}

func TestSpectrumRejectsWrongLength(t *testing.T) {
	s := newTestSpectrum(t, 8, FullBins)
	if _, err := s.Transform(make(source.Block, 7)); !errors.Is(err, ErrBlockLength) {
		t.Errorf("Transform(7 samples) error = %v, want ErrBlockLength", err)
	}
}

func TestNewSpectrumValidation(t *testing.T) {
	tests := []SpectrumOptions{
		{Size: 1, SampleRate: testSampleRate},
		{Size: 8, SampleRate: 0},
		{Size: 8, SampleRate: testSampleRate, AmplitudeRange: -1},
	}
	for _, opts := range tests {
		if _, err := NewSpectrum(opts); err == nil {
			t.Errorf("NewSpectrum(%+v) expected error", opts)
		}
	}
}

func TestSpectrumSinePeak(t *testing.T) {
	const bin = 32
	freq := float64(bin) * testSampleRate / testFFTSize
	block := source.Block(utils.GenerateSineWave(testFFTSize, testSampleRate, freq, 0.5))

	s := newTestSpectrum(t, testFFTSize, FullBins)
	frame, err := s.Transform(block)
	if err != nil {
		t.Fatal(err)
	}

	if got := utils.FindPeakBin(frame, 0, testFFTSize/2); got != bin {
		t.Fatalf("peak bin = %d, want %d", got, bin)
	}
	// A sine of amplitude A splits A*N/2 between bin k and its mirror.
	if !utils.ApproxEqual(frame[bin], 0.25, 1e-3) {
		t.Errorf("peak magnitude = %g, want 0.25", frame[bin])
	}
	if frame[testFFTSize-bin] != frame[bin] {
		t.Errorf("mirror bin = %g, want %g", frame[testFFTSize-bin], frame[bin])
	}
	if f := s.FrequencyForBin(bin); !utils.ApproxEqual(f, freq, 1e-9) {
		t.Errorf("FrequencyForBin(%d) = %g, want %g", bin, f, freq)
	}
}

func TestSpectrumHalfMatchesFull(t *testing.T) {
	block := source.Block(utils.GenerateComplexWave(testFFTSize, testSampleRate))
	full, _ := newTestSpectrum(t, testFFTSize, FullBins).Transform(block)
	half, _ := newTestSpectrum(t, testFFTSize, HalfBins).Transform(block)

	for k := range half {
		if half[k] != full[k] {
			t.Fatalf("bin %d: half %g != full %g", k, half[k], full[k])
		}
	}
}

func TestSpectrumDeterministic(t *testing.T) {
	s := newTestSpectrum(t, 256, FullBins)
	block := source.Block(utils.GenerateComplexWave(256, testSampleRate))
	a, _ := s.Transform(block)
	b, _ := s.Transform(block)
	for k := range a {
		if a[k] != b[k] {
			t.Fatalf("bin %d differs between runs: %g != %g", k, a[k], b[k])
		}
	}
}

func TestTransformIntoZeroAllocs(t *testing.T) {
	s := newTestSpectrum(t, testFFTSize, FullBins)
	block := source.Block(utils.GenerateComplexWave(testFFTSize, testSampleRate))
	dst := make(Frame, s.Len())

	_ = s.TransformInto(dst, block)
	allocs := testing.AllocsPerRun(100, func() {
		_ = s.TransformInto(dst, block)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in TransformInto, got %.1f", allocs)
	}
}

func TestFrequencyForBinOutOfRange(t *testing.T) {
	s := newTestSpectrum(t, 16, HalfBins)
	for _, k := range []int{-1, 8, 100} {
		if f := s.FrequencyForBin(k); f != 0 {
			t.Errorf("FrequencyForBin(%d) = %g, want 0", k, f)
		}
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := map[string]WindowFunc{
		"":            Rectangular,
		"none":        Rectangular,
		"Rectangular": Rectangular,
		"hanning":     Hann,
		"HAMMING":     Hamming,
		"nuttall":     Nuttall,
	}
	for name, want := range tests {
		got, err := ParseWindowFunc(name)
		if err != nil || got != want {
			t.Errorf("ParseWindowFunc(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseWindowFunc("triangle"); err == nil {
		t.Error("ParseWindowFunc(triangle) expected error")
	}
}

func TestParseBins(t *testing.T) {
	if b, err := ParseBins("HALF"); err != nil || b != HalfBins {
		t.Errorf("ParseBins(HALF) = %v, %v", b, err)
	}
	if b, err := ParseBins(""); err != nil || b != FullBins {
		t.Errorf("ParseBins(\"\") = %v, %v", b, err)
	}
	if _, err := ParseBins("quarter"); err == nil {
		t.Error("ParseBins(quarter) expected error")
	}
}

func TestWindowedSilenceIsZero(t *testing.T) {
	s, err := NewSpectrum(SpectrumOptions{Size: 64, SampleRate: testSampleRate, Window: Hann})
	if err != nil {
		t.Fatal(err)
	}
	frame, _ := s.Transform(make(source.Block, 64))
	for k, v := range frame {
		if v != 0 {
			t.Fatalf("bin %d = %g, want 0", k, v)
		}
	}
}

func BenchmarkTransformInto(b *testing.B) {
	s := newTestSpectrum(b, testFFTSize, FullBins)
	block := source.Block(utils.GenerateComplexWave(testFFTSize, testSampleRate))
	dst := make(Frame, s.Len())

	b.ReportAllocs()

	for b.Loop() {
		_ = s.TransformInto(dst, block)
	}
}
