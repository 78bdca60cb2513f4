// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"

	"liveplot/internal/source"
)

// Gate silences blocks whose peak amplitude does not exceed a threshold, so
// room noise does not show up as a spectrum. It wraps any source.Source.
type Gate struct {
	inner         source.Source
	gateEnabled   atomic.Bool
	gateThreshold atomic.Int32 // Absolute amplitude threshold (0-32767).
}

var _ source.Source = (*Gate)(nil)

// NewGate wraps src with an enabled gate at threshold (0-1 of full scale).
func NewGate(src source.Source, threshold float64) *Gate {
	g := &Gate{inner: src}
	g.SetGateThreshold(threshold)
	g.gateEnabled.Store(true)
	return g
}

func (g *Gate) EnableGate() {
	g.gateEnabled.Store(true)
}

func (g *Gate) DisableGate() {
	g.gateEnabled.Store(false)
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	g.gateThreshold.Store(int32(threshold * float64(math.MaxInt16)))
}

// GetGateThreshold returns the current noise gate threshold as a float64.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) GetGateThreshold() float64 {
	return float64(g.gateThreshold.Load()) / float64(math.MaxInt16)
}

// Read passes the inner block through, zeroed when the gate is closed.
func (g *Gate) Read() (source.Block, error) {
	block, err := g.inner.Read()
	if err != nil {
		return nil, err
	}
	if g.gateEnabled.Load() && !gateOpen(block, g.gateThreshold.Load()) {
		clear(block)
	}
	return block, nil
}

func (g *Gate) BlockSize() int { return g.inner.BlockSize() }

func (g *Gate) Close() error { return g.inner.Close() }

// gateOpen reports whether the peak amplitude of block exceeds threshold.
// The hot loop is branchless and does not allocate.
func gateOpen(block source.Block, threshold int32) bool {
	var maxAmplitude int32
	for i := range block {
		sample := int32(block[i])
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude > threshold
}
