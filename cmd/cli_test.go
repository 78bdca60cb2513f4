// SPDX-License-Identifier: MIT
package cmd

import (
	"io"
	"os"
	"testing"
	"time"

	"liveplot/internal/config"
	applog "liveplot/internal/log"
	"liveplot/internal/pipeline"
	"liveplot/internal/render"
	"liveplot/internal/transport"
	"liveplot/internal/transport/udp"
)

func TestMain(m *testing.M) {
	applog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func loadWith(t *testing.T, command string, args ...string) (*config.Config, mirrors) {
	t.Helper()
	f := &flags{}
	root := newRootCommand(f)
	sub, _, err := root.Find([]string{command})
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	cfg, out, err := f.load(sub, command)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg, out
}

func TestLoadDefaults(t *testing.T) {
	cfg, out := loadWith(t, config.CommandSpectrum)
	if cfg.Audio.SampleRate != config.DefaultSampleRate || cfg.Audio.BlockSize != config.DefaultBlockSize {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Loop.Schedule != config.ScheduleBlocking {
		t.Errorf("spectrum schedule = %q, want blocking", cfg.Loop.Schedule)
	}
	if out != (mirrors{}) {
		t.Errorf("mirrors = %+v, want none", out)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	cfg, out := loadWith(t, config.CommandSpectrum,
		"--sample-rate", "48000", "-b", "1024", "--source", "sine",
		"--bins", "half", "--window", "hann", "--surface", "none", "--harmonics", "5",
		"--listen", "127.0.0.1:0", "--send-interval", "50ms", "--record", "out.wav")

	if cfg.Audio.SampleRate != 48000 || cfg.Audio.BlockSize != 1024 || cfg.Audio.Source != config.SourceSine {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.Harmonics != 5 {
		t.Errorf("harmonics = %d, want 5", cfg.Audio.Harmonics)
	}
	if cfg.Spectrum.Bins != config.BinsHalf || cfg.Spectrum.Window != "hann" {
		t.Errorf("spectrum = %+v", cfg.Spectrum)
	}
	if !cfg.Recording.Enabled || cfg.Recording.OutputFile != "out.wav" {
		t.Errorf("recording = %+v", cfg.Recording)
	}
	if cfg.Transport.MinSendInterval != 50*time.Millisecond {
		t.Errorf("send interval = %s, want 50ms", cfg.Transport.MinSendInterval)
	}
	if out.websocket != "127.0.0.1:0" || out.udp != "" {
		t.Errorf("mirrors = %+v", out)
	}
}

func TestLoadGeneratedScenesUseTimer(t *testing.T) {
	for _, command := range []string{config.CommandTerrain, config.CommandWaves} {
		cfg, _ := loadWith(t, command)
		if cfg.Loop.Schedule != config.ScheduleTimer || cfg.Loop.Interval != 10*time.Millisecond {
			t.Errorf("%s: loop = %+v, want timer at 10ms", command, cfg.Loop)
		}
	}
	cfg, _ := loadWith(t, config.CommandTerrain, "--schedule", "blocking", "--seed", "7")
	if cfg.Loop.Schedule != config.ScheduleBlocking || cfg.Terrain.Seed != 7 {
		t.Errorf("explicit flags ignored: %+v %+v", cfg.Loop, cfg.Terrain)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	f := &flags{}
	root := newRootCommand(f)
	sub, _, _ := root.Find([]string{config.CommandSpectrum})
	if err := sub.ParseFlags([]string{"--sample-rate", "100"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.load(sub, config.CommandSpectrum); err == nil {
		t.Error("expected error for a 100 Hz sample rate")
	}
}

func TestBuildPipelineHarmonicSine(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Command = config.CommandSpectrum
	cfg.Audio.Source = config.SourceSine
	cfg.Audio.BlockSize = 256
	cfg.Audio.Harmonics = 4

	p, _, cleanup, err := buildPipeline(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	defer p.Close()

	h := render.NewHeadless()
	if err := p.Next(h); err != nil {
		t.Fatal(err)
	}
	if s, ok := h.Lines(pipeline.SpectrumID); !ok || s.Len() != 256 {
		t.Errorf("spectrum = %d points, %v", s.Len(), ok)
	}
}

func TestBuildPipeline(t *testing.T) {
	tests := []struct {
		command string
		check   func(any) bool
	}{
		{config.CommandTerrain, func(p any) bool { _, ok := p.(*pipeline.Terrain); return ok }},
		{config.CommandWaves, func(p any) bool { _, ok := p.(*pipeline.Waves); return ok }},
		{config.CommandSpectrum, func(p any) bool { _, ok := p.(*pipeline.Spectrum); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.Command = tt.command
			cfg.Audio.Source = config.SourceSilence
			cfg.Audio.Overlap = 2 * cfg.Audio.BlockSize
			cfg.Audio.Gate = 0.1

			p, in, cleanup, err := buildPipeline(cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer cleanup()
			defer p.Close()
			if !tt.check(p) {
				t.Errorf("pipeline type %T", p)
			}
			if in.recorder != nil || in.mic != nil {
				t.Errorf("capture = %+v, want no recorder or microphone", in)
			}
		})
	}
}

func TestBuildPipelineRecording(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Command = config.CommandSpectrum
	cfg.Audio.Source = config.SourceSilence
	cfg.Audio.BlockSize = 64
	cfg.Recording.Enabled = true
	cfg.Recording.OutputFile = t.TempDir() + "/rec.wav"

	p, in, cleanup, err := buildPipeline(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	rec := in.recorder
	if rec == nil || !rec.Recording() {
		t.Fatal("recorder not started")
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if rec.Recording() {
		t.Error("closing the pipeline should finish the recording")
	}
	if _, err := os.Stat(cfg.Recording.OutputFile); err != nil {
		t.Errorf("recording file: %v", err)
	}
}

func TestBuildSurface(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Display.Surface = config.SurfaceNone
	s, win, restore, err := buildSurface(cfg, mirrors{})
	if err != nil {
		t.Fatal(err)
	}
	defer restore()
	if win != nil {
		t.Error("none surface returned a window")
	}
	if _, ok := s.(*transport.Surface); !ok {
		t.Errorf("none surface is %T", s)
	}
	_ = s.Close()

	cfg.Display.Surface = config.SurfaceUDP
	cfg.Transport.UDPTargetAddress = "127.0.0.1:9"
	s, _, _, err = buildSurface(cfg, mirrors{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*udp.Publisher); !ok {
		t.Errorf("udp surface is %T", s)
	}
	_ = s.Close()
}
