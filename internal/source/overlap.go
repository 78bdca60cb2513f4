// SPDX-License-Identifier: MIT
package source

import "fmt"

// Overlap turns a source of hop-sized blocks into a source of window-sized
// blocks that overlap by window-hop samples. History lives here: each Read
// pulls exactly one new block from the inner source and slides it into the
// window, so no data is ever replayed from the device.
type Overlap struct {
	inner  Source
	window []int16
	hop    int
}

// NewOverlap wraps src. window must be at least src.BlockSize(). The window
// starts zero-filled, so the first reads contain leading silence.
func NewOverlap(src Source, window int) (*Overlap, error) {
	hop := src.BlockSize()
	if window < hop {
		return nil, fmt.Errorf("overlap window %d shorter than hop %d", window, hop)
	}
	return &Overlap{
		inner:  src,
		window: make([]int16, window),
		hop:    hop,
	}, nil
}

func (o *Overlap) Read() (Block, error) {
	next, err := o.inner.Read()
	if err != nil {
		return nil, err
	}
	if len(next) != o.hop {
		return nil, fmt.Errorf("overlap: inner block has %d samples, want %d", len(next), o.hop)
	}

	copy(o.window, o.window[o.hop:])
	copy(o.window[len(o.window)-o.hop:], next)

	out := make(Block, len(o.window))
	copy(out, o.window)
	return out, nil
}

func (o *Overlap) BlockSize() int { return len(o.window) }

// Hop is the number of new samples per Read.
func (o *Overlap) Hop() int { return o.hop }

func (o *Overlap) Close() error { return o.inner.Close() }
