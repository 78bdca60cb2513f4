// SPDX-License-Identifier: MIT
/*
Package audio owns the PortAudio lifecycle and everything that touches a host
device:
- Device discovery and selection
- A blocking microphone source for the render loop
- A noise gate and a WAV recording tee, both wrapping any source.Source

The microphone uses PortAudio's blocking read API, so the render loop pulls
exactly one block per frame and nothing buffers between the two.
*/
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"liveplot/internal/config"
	applog "liveplot/internal/log"
	"liveplot/internal/source"

	"github.com/gordonklaus/portaudio"
)

// Microphone is a source.Source reading int16 blocks from an input device.
// Only the first channel of multi-channel input is kept.
type Microphone struct {
	mu sync.Mutex

	// Audio input handling.
	inputBuffer  []int16 // Interleaved frames x channels, filled by PortAudio.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	blockSize  int
	channels   int
	sampleRate float64
	overflows  int
}

var _ source.Source = (*Microphone)(nil)

// NewMicrophone opens and starts a blocking input stream. PortAudio must be
// initialized.
func NewMicrophone(cfg config.AudioConfig) (*Microphone, error) {
	inputDevice, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, &source.DeviceError{Op: "select", Err: err}
	}

	m := &Microphone{
		inputBuffer: make([]int16, cfg.BlockSize*cfg.Channels),
		inputDevice: inputDevice,
		blockSize:   cfg.BlockSize,
		channels:    cfg.Channels,
		sampleRate:  cfg.SampleRate,
	}
	if cfg.LowLatency {
		m.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		m.inputLatency = inputDevice.DefaultHighInputLatency
	}

	if err := m.startInputStream(); err != nil {
		return nil, &source.DeviceError{Op: "open", Err: err}
	}

	applog.Infof("Microphone: %s, %d ch @ %.0f Hz, block %d, latency %s",
		inputDevice.Name, m.channels, m.sampleRate, m.blockSize, m.inputLatency)
	return m, nil
}

func (m *Microphone) startInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: m.channels,
			Device:   m.inputDevice,
			Latency:  m.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: m.blockSize,
		SampleRate:      m.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, m.inputBuffer)
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	m.inputStream = stream
	return nil
}

// Read blocks until the device delivers a full block. Input overflow means
// samples were lost upstream; it is logged and the block is still returned.
func (m *Microphone) Read() (source.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inputStream == nil {
		return nil, source.ErrClosed
	}

	if err := m.inputStream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, &source.DeviceError{Op: "read", Err: err}
		}
		m.overflows++
		applog.Debugf("Microphone: input overflowed (%d so far)", m.overflows)
	}

	block := make(source.Block, m.blockSize)
	if m.channels == 1 {
		copy(block, m.inputBuffer)
		return block, nil
	}
	for i := range block {
		block[i] = m.inputBuffer[i*m.channels]
	}
	return block, nil
}

func (m *Microphone) BlockSize() int { return m.blockSize }

// Overflows is the number of reads that reported lost input.
func (m *Microphone) Overflows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overflows
}

// Close stops and closes the stream. It is safe to call more than once.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inputStream == nil {
		return nil
	}
	stream := m.inputStream
	m.inputStream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("error stopping stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("error closing stream: %w", err)
	}
	if m.overflows > 0 {
		applog.Warnf("Microphone: %d blocks overflowed", m.overflows)
	}
	return nil
}
