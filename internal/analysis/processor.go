// SPDX-License-Identifier: MIT
package analysis

import "liveplot/internal/source"

// Frame is a Spectral Frame: one non-negative normalized magnitude per
// frequency bin. A new Frame is derived for every block and handed off to the
// renderer; nothing keeps a reference to it afterwards.
type Frame []float64

// Transformer converts a Sample Block into a Spectral Frame.
type Transformer interface {
	// Transform returns a newly allocated frame for block.
	Transform(block source.Block) (Frame, error)
	// Len is the number of bins in every frame produced.
	Len() int
}

// FrequencyProvider maps bins to their center frequencies. It decouples the
// band grouping from the concrete transform.
type FrequencyProvider interface {
	FrequencyForBin(binIndex int) float64 // Center frequency (Hz) of a bin.
	Size() int                            // Transform size N.
	SampleRate() float64
}
