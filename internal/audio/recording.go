package audio

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	applog "liveplot/internal/log"
	"liveplot/internal/source"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RecordingBitDepth is the only sample size written; blocks are int16.
const RecordingBitDepth = 16

// Recorder tees every block read from a source into a mono 16-bit WAV file
// while recording is active.
type Recorder struct {
	inner      source.Source
	sampleRate int

	mu          sync.Mutex
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
}

var _ source.Source = (*Recorder)(nil)

// NewRecorder wraps src. Nothing is written until StartRecording.
func NewRecorder(src source.Source, sampleRate float64) *Recorder {
	return &Recorder{inner: src, sampleRate: int(sampleRate)}
}

func (r *Recorder) StartRecording(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadInt32(&r.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file

	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, RecordingBitDepth, 1, 1)

	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  r.sampleRate,
		},
		Data:           make([]int, r.inner.BlockSize()),
		SourceBitDepth: RecordingBitDepth,
	}

	atomic.StoreInt32(&r.isRecording, 1)
	applog.Infof("Recorder: writing %s (%d Hz, %d-bit mono)", filename, r.sampleRate, RecordingBitDepth)

	return nil
}

func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&r.isRecording, 0)

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}

	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}

	return nil
}

// Recording reports whether blocks are currently written to disk.
func (r *Recorder) Recording() bool { return atomic.LoadInt32(&r.isRecording) == 1 }

// Read returns the inner block unchanged. A failed write is logged and does
// not interrupt the stream.
func (r *Recorder) Read() (source.Block, error) {
	block, err := r.inner.Read()
	if err != nil {
		return nil, err
	}

	if atomic.LoadInt32(&r.isRecording) == 1 {
		r.mu.Lock()
		if r.wavEncoder != nil {
			r.sampleBuf.Data = r.sampleBuf.Data[:0]
			for _, sample := range block {
				r.sampleBuf.Data = append(r.sampleBuf.Data, int(sample))
			}
			if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
				applog.Errorf("Recorder: error writing to WAV file: %v", err)
			}
		}
		r.mu.Unlock()
	}
	return block, nil
}

func (r *Recorder) BlockSize() int { return r.inner.BlockSize() }

// Close finalizes the WAV file and closes the inner source.
func (r *Recorder) Close() error {
	r.mu.Lock()
	err := r.stopLocked()
	r.mu.Unlock()
	if err != nil {
		r.inner.Close()
		return err
	}
	return r.inner.Close()
}
