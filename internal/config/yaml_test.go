// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "liveplot.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	// No candidate files exist in the package directory, so defaults apply.
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Audio.BlockSize != DefaultBlockSize {
		t.Errorf("BlockSize = %d, want %d", cfg.Audio.BlockSize, DefaultBlockSize)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("SampleRate = %.0f, want %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Audio.Channels)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeTempConfig(t, `
audio:
  block_size: 1024
  source: sine
spectrum:
  bins: half
  window: hann
terrain:
  rows: 3
  cols: 4
loop:
  schedule: timer
  interval: 20ms
display:
  surface: none
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.BlockSize != 1024 || cfg.Audio.Source != SourceSine {
		t.Errorf("audio section not applied: %+v", cfg.Audio)
	}
	if cfg.Spectrum.Bins != BinsHalf || cfg.Spectrum.Window != "hann" {
		t.Errorf("spectrum section not applied: %+v", cfg.Spectrum)
	}
	if cfg.Terrain.Rows != 3 || cfg.Terrain.Cols != 4 {
		t.Errorf("terrain section not applied: %+v", cfg.Terrain)
	}
	// Unset keys keep their defaults.
	if cfg.Terrain.Step != DefaultTerrainStep {
		t.Errorf("terrain.step = %g, want default %g", cfg.Terrain.Step, DefaultTerrainStep)
	}
	if cfg.Loop.Interval != 20*time.Millisecond {
		t.Errorf("loop.interval = %s, want 20ms", cfg.Loop.Interval)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ENV_SURFACE", "websocket")
	t.Setenv("ENV_BLOCK_SIZE", "512")
	t.Setenv("ENV_LOOP_INTERVAL", "not-a-duration")

	cfg, err := LoadConfig(writeTempConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Display.Surface != SurfaceWebSocket {
		t.Errorf("surface = %q, want websocket", cfg.Display.Surface)
	}
	if cfg.Audio.BlockSize != 512 {
		t.Errorf("block size = %d, want 512", cfg.Audio.BlockSize)
	}
	if cfg.Loop.Interval != DefaultInterval {
		t.Errorf("unparseable interval override should be ignored, got %s", cfg.Loop.Interval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		substr  string
	}{
		{"defaults", func(*Config) {}, nil, ""},
		{"low sample rate", func(c *Config) { c.Audio.SampleRate = 100 }, ErrSampleRate, ""},
		{"block too small", func(c *Config) { c.Audio.BlockSize = 1 }, ErrBlockSize, ""},
		{"block too large", func(c *Config) { c.Audio.BlockSize = 16384 }, ErrBlockSize, ""},
		{"non power of two ok", func(c *Config) { c.Audio.BlockSize = 1000 }, nil, ""},
		{"no channels", func(c *Config) { c.Audio.Channels = 0 }, ErrChannels, ""},
		{"overlap shorter than block", func(c *Config) { c.Audio.Overlap = 16 }, nil, "audio.overlap"},
		{"unknown source", func(c *Config) { c.Audio.Source = "radio" }, nil, "audio.source"},
		{"too many harmonics", func(c *Config) { c.Audio.Harmonics = MaxHarmonics + 1 }, nil, "audio.harmonics"},
		{"negative send interval", func(c *Config) { c.Transport.MinSendInterval = -time.Second }, nil, "min_send_interval"},
		{"unknown bins", func(c *Config) { c.Spectrum.Bins = "quarter" }, nil, "spectrum.bins"},
		{"unknown window", func(c *Config) { c.Spectrum.Window = "kaiser" }, nil, "spectrum.window"},
		{"zero amplitude range", func(c *Config) { c.Spectrum.AmplitudeRange = 0 }, nil, "amplitude_range"},
		{"tiny grid", func(c *Config) { c.Terrain.Rows = 1 }, ErrGrid, ""},
		{"no wave points", func(c *Config) { c.Waves.Points = 1 }, ErrWaves, ""},
		{"unknown schedule", func(c *Config) { c.Loop.Schedule = "async" }, nil, "loop.schedule"},
		{"timer without interval", func(c *Config) {
			c.Loop.Schedule = ScheduleTimer
			c.Loop.Interval = 0
		}, nil, "loop.interval"},
		{"unknown surface", func(c *Config) { c.Display.Surface = "matplotlib" }, nil, "display.surface"},
		{"udp target without port", func(c *Config) {
			c.Display.Surface = SurfaceUDP
			c.Transport.UDPTargetAddress = "localhost"
		}, nil, "missing port"},
		{"recording without file", func(c *Config) { c.Recording.Enabled = true }, nil, "output_file"},
		{"recording 24-bit", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.OutputFile = "x.wav"
			c.Recording.BitDepth = 24
		}, nil, "bit_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			switch {
			case tt.wantErr == nil && tt.substr == "":
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			default:
				if err == nil || !strings.Contains(err.Error(), tt.substr) {
					t.Errorf("Validate() = %v, want error containing %q", err, tt.substr)
				}
			}
		})
	}
}
