// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"

	applog "liveplot/internal/log"
	"liveplot/internal/source"
	"liveplot/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied to a block before the transform.
type WindowFunc int

const (
	Rectangular WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = map[WindowFunc]string{
	Rectangular:     "rectangular",
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// Bins selects how many bins of the N-point transform are kept.
type Bins int

const (
	// FullBins keeps all N bins; bins above N/2 mirror the positive ones.
	FullBins Bins = iota
	// HalfBins keeps the first N/2 bins and discards negative frequencies.
	HalfBins
)

func (b Bins) String() string {
	if b == HalfBins {
		return "half"
	}
	return "full"
}

// DefaultAmplitudeRange is the half amplitude range of 16-bit samples.
const DefaultAmplitudeRange = 32768.0

// ErrBlockLength is returned when a block does not match the transform size.
var ErrBlockLength = errors.New("block length does not match transform size")

// SpectrumOptions configures NewSpectrum.
type SpectrumOptions struct {
	Size           int        // Transform size N, equal to the block size.
	SampleRate     float64    // Used only for bin frequencies.
	Bins           Bins       // Full (N) or half (N/2) output.
	AmplitudeRange float64    // Half amplitude range of the input samples.
	Window         WindowFunc // Window applied before the transform.
}

type fftWorkspace struct {
	input     []float64    // Windowed input signal.
	fftOutput []complex128 // N/2+1 coefficients of the real transform.
	window    []float64    // Pre-calculated window coefficients.
}

// Spectrum is the Spectral Transform. Every output bin is
//
//	|X[k]| / (N * AmplitudeRange)
//
// where X is the DFT of the (windowed) block. With the default amplitude
// range a full-scale sine peaks at 0.5 in its bin. Spectrum is not safe for
// concurrent use; the render loop owns it.
type Spectrum struct {
	fftCalculator *fourier.FFT
	size          int
	sampleRate    float64
	bins          Bins
	divisor       float64
	windowType    WindowFunc
	workspace     fftWorkspace
}

var (
	_ Transformer       = (*Spectrum)(nil)
	_ FrequencyProvider = (*Spectrum)(nil)
)

// NewSpectrum creates a transform for blocks of opts.Size samples. Sizes that
// are not a power of two are accepted; they are only slower.
func NewSpectrum(opts SpectrumOptions) (*Spectrum, error) {
	if opts.Size < 2 {
		return nil, fmt.Errorf("fft size must be at least 2, got %d", opts.Size)
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", opts.SampleRate)
	}
	if opts.AmplitudeRange == 0 {
		opts.AmplitudeRange = DefaultAmplitudeRange
	}
	if opts.AmplitudeRange < 0 {
		return nil, fmt.Errorf("amplitude range must be positive, got %f", opts.AmplitudeRange)
	}
	if !bitint.IsPowerOfTwo(opts.Size) {
		applog.Warnf("Analysis: FFT size %d is not a power of two", opts.Size)
	}

	coeffs := make([]float64, opts.Size)
	applyWindow(coeffs, opts.Window)

	applog.Infof("Analysis: Initializing Spectrum (Size: %d, SampleRate: %.1f Hz, Bins: %s, Window: %s)",
		opts.Size, opts.SampleRate, opts.Bins, opts.Window)

	return &Spectrum{
		fftCalculator: fourier.NewFFT(opts.Size),
		size:          opts.Size,
		sampleRate:    opts.SampleRate,
		bins:          opts.Bins,
		divisor:       float64(opts.Size) * opts.AmplitudeRange,
		windowType:    opts.Window,
		workspace: fftWorkspace{
			input:     make([]float64, opts.Size),
			fftOutput: make([]complex128, opts.Size/2+1),
			window:    coeffs,
		},
	}, nil
}

// Transform implements Transformer.
func (s *Spectrum) Transform(block source.Block) (Frame, error) {
	frame := make(Frame, s.Len())
	if err := s.TransformInto(frame, block); err != nil {
		return nil, err
	}
	return frame, nil
}

// TransformInto writes the spectrum of block into dst without allocating.
// dst must have Len() elements.
func (s *Spectrum) TransformInto(dst Frame, block source.Block) error {
	if len(block) != s.size {
		return fmt.Errorf("%w: got %d, want %d", ErrBlockLength, len(block), s.size)
	}
	if len(dst) != s.Len() {
		return fmt.Errorf("destination has %d bins, want %d", len(dst), s.Len())
	}

	for i, v := range block {
		s.workspace.input[i] = float64(v) * s.workspace.window[i]
	}

	s.fftCalculator.Coefficients(s.workspace.fftOutput, s.workspace.input)

	// The real transform yields bins 0..N/2; the rest are complex conjugates
	// of the positive bins and share their magnitudes.
	half := len(s.workspace.fftOutput)
	for k := range dst {
		idx := k
		if idx >= half {
			idx = s.size - k
		}
		dst[k] = cmplx.Abs(s.workspace.fftOutput[idx]) / s.divisor
	}
	return nil
}

// Len returns the number of bins per frame: N for FullBins, N/2 for HalfBins.
func (s *Spectrum) Len() int {
	if s.bins == HalfBins {
		return s.size / 2
	}
	return s.size
}

// FrequencyForBin returns the center frequency (Hz) of a bin, or 0 when the
// index is out of range. Bins above N/2 report their aliased frequency.
func (s *Spectrum) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= s.Len() {
		return 0.0
	}
	return float64(binIndex) * s.sampleRate / float64(s.size)
}

// Size returns the transform size N.
func (s *Spectrum) Size() int { return s.size }

// SampleRate returns the configured sample rate (Hz).
func (s *Spectrum) SampleRate() float64 { return s.sampleRate }

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Rectangular and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "", "rectangular", "none":
		return Rectangular, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Rectangular, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// ParseBins converts "full" or "half" to Bins.
func ParseBins(name string) (Bins, error) {
	switch strings.ToLower(name) {
	case "", "full":
		return FullBins, nil
	case "half":
		return HalfBins, nil
	default:
		return FullBins, fmt.Errorf("unknown bin convention: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. Rectangular leaves all
// coefficients at 1.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Rectangular:
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("Analysis: Unknown window function type %d, using rectangular", windowType)
	}
}
