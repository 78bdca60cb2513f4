// SPDX-License-Identifier: MIT
/*
Package source produces the fixed-size sample blocks consumed by the render
loop. A Source is either a live device (see internal/audio) or a synthetic
generator. Every Read returns a freshly allocated Block of exactly
BlockSize samples; blocks are never replayed or aliased by later reads.
*/
package source

import (
	"errors"
	"fmt"
)

// Block is one channel of signed 16-bit samples captured in a single read.
type Block []int16

// Source yields one Block per call, blocking until a full block is available.
type Source interface {
	Read() (Block, error)
	BlockSize() int
	Close() error
}

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("source closed")

// DeviceError reports that the input device became unavailable. The loop
// treats it as fatal for the current run.
type DeviceError struct {
	Op  string // Operation that failed, e.g. "read" or "open".
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IsDeviceError reports whether err carries a DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}
