// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"liveplot/internal/source"

	"github.com/go-audio/wav"
)

func newTestRecorder() (*Recorder, *fixed) {
	inner := &fixed{block: testBuffer}
	return NewRecorder(inner, testSampleRate), inner
}

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_recording.wav")
	rec, _ := newTestRecorder()

	if err := rec.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if !rec.Recording() {
		t.Error("Recorder should be in recording state")
	}
	if rec.outputFile == nil || rec.wavEncoder == nil || rec.sampleBuf == nil {
		t.Fatal("Recording state should be initialized")
	}
	if rec.sampleBuf.Format.NumChannels != 1 || rec.sampleBuf.Format.SampleRate != testSampleRate {
		t.Errorf("Buffer format = %+v", rec.sampleBuf.Format)
	}

	// Store reference to check file closure.
	outputFile := rec.outputFile

	if err := rec.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	if atomic.LoadInt32(&rec.isRecording) != 0 {
		t.Error("Recorder should not be in recording state after stopping")
	}
	if rec.outputFile != nil || rec.wavEncoder != nil {
		t.Error("Output file and encoder should be nil after stopping")
	}
	if err := outputFile.Close(); err == nil {
		t.Error("File should already be closed")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		desc          string
		filename      string
		isRecording   int32
		expectError   bool
		errorContains string
	}{
		{"Already recording", "valid.wav", 1, true, "already recording"},
		{"Invalid path", "/nonexistent/path/file.wav", 0, true, ""},
		{"Valid path", "test.wav", 0, false, ""},
		{"Stop when not recording", "", 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var err error
			rec, _ := newTestRecorder()
			atomic.StoreInt32(&rec.isRecording, tt.isRecording)

			if tt.desc == "Stop when not recording" {
				err = rec.StopRecording()
			} else {
				filename := tt.filename
				if !filepath.IsAbs(filename) {
					filename = filepath.Join(dir, tt.filename)
				}
				err = rec.StartRecording(filename)
				if err == nil {
					_ = rec.StopRecording()
				}
			}

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tt.errorContains != "" && err != nil && !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Error %q does not contain %q", err.Error(), tt.errorContains)
			}
		})
	}
}

func TestRecorderWritesBlocks(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tee.wav")
	rec, inner := newTestRecorder()

	if err := rec.StartRecording(filename); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		block, err := rec.Read()
		if err != nil {
			t.Fatal(err)
		}
		if len(block) != testFrameSize || block[9] != testBuffer[9] {
			t.Fatal("Recorder altered the block")
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !inner.closed {
		t.Error("inner source not closed")
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.BitDepth != RecordingBitDepth || d.NumChans != 1 || d.SampleRate != testSampleRate {
		t.Errorf("header = %d-bit, %d ch, %d Hz", d.BitDepth, d.NumChans, d.SampleRate)
	}
	if len(buf.Data) != 3*testFrameSize {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), 3*testFrameSize)
	}
	for i, v := range buf.Data[:testFrameSize] {
		if v != int(testBuffer[i]) {
			t.Fatalf("sample %d = %d, want %d", i, v, testBuffer[i])
		}
	}
}

func TestRecorderPassThroughWhenIdle(t *testing.T) {
	rec, _ := newTestRecorder()
	block, err := rec.Read()
	if err != nil || len(block) != testFrameSize {
		t.Fatalf("Read() = %d samples, %v", len(block), err)
	}
	if rec.Recording() {
		t.Error("Recorder should not record before StartRecording")
	}
}

func TestRecorderPropagatesErrors(t *testing.T) {
	silence := source.NewSilence(8)
	rec := NewRecorder(silence, testSampleRate)
	_ = silence.Close()
	if _, err := rec.Read(); err != source.ErrClosed {
		t.Errorf("Read() = %v, want ErrClosed", err)
	}
}

func BenchmarkRecordingProcessHotPath(b *testing.B) {
	rec, _ := newTestRecorder()
	filename := filepath.Join(b.TempDir(), "bench_process.wav")
	if err := rec.StartRecording(filename); err != nil {
		b.Fatal(err)
	}
	defer rec.StopRecording()

	b.ReportAllocs()

	for b.Loop() {
		_, _ = rec.Read()
	}
}
