// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "liveplot/internal/log"
	"liveplot/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Preallocated errors for the validation hot spots.
var (
	ErrSampleRate = errors.New("audio.sample_rate out of range")
	ErrBlockSize  = errors.New("audio.block_size out of range")
	ErrChannels   = errors.New("audio.channels must be at least 1")
	ErrGrid       = errors.New("terrain grid must be at least 2x2")
	ErrWaves      = errors.New("waves need at least one line of two points")
)

var knownWindows = []string{
	"rectangular", "none", "bartletthann", "blackman", "blackmannuttall",
	"hann", "hanning", "hamming", "lanczos", "nuttall",
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("liveplot.yaml", "config.yaml"). If no file is found,
// it uses built-in defaults. After loading defaults or from file, it applies environment
// variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range []string{"liveplot.yaml", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment overrides apply after the file so deployments can patch it.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the engine limits. A block size that
// is not a power of two is accepted with a warning since the transform stays
// correct, only slower.
func (c *Config) Validate() error {
	c.normalize()

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: %.0f (want %d..%d)", ErrSampleRate, c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.BlockSize < MinBlockSize || c.Audio.BlockSize > MaxBlockSize {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrBlockSize, c.Audio.BlockSize, MinBlockSize, MaxBlockSize)
	}
	if !bitint.IsPowerOfTwo(c.Audio.BlockSize) {
		applog.Warnf("configuration: audio.block_size %d is not a power of two, the FFT will be slower (nearest fast size %d)",
			c.Audio.BlockSize, bitint.NextPowerOfTwo(c.Audio.BlockSize))
	}
	if c.Audio.Channels < 1 {
		return ErrChannels
	}
	if c.Audio.Overlap != 0 && c.Audio.Overlap < c.Audio.BlockSize {
		return fmt.Errorf("audio.overlap %d must be 0 or at least audio.block_size %d", c.Audio.Overlap, c.Audio.BlockSize)
	}
	if c.Audio.Overlap > MaxBlockSize {
		return fmt.Errorf("audio.overlap %d exceeds %d", c.Audio.Overlap, MaxBlockSize)
	}
	if c.Audio.Harmonics < 0 || c.Audio.Harmonics > MaxHarmonics {
		return fmt.Errorf("audio.harmonics %d must be between 0 and %d", c.Audio.Harmonics, MaxHarmonics)
	}
	if c.Audio.Gate < 0 || c.Audio.Gate > 1 {
		return fmt.Errorf("audio.gate %.3f must be between 0 and 1", c.Audio.Gate)
	}
	if err := oneOf("audio.source", c.Audio.Source, SourceMicrophone, SourceSine, SourceSweep, SourceSilence); err != nil {
		return err
	}
	if err := oneOf("spectrum.bins", c.Spectrum.Bins, BinsFull, BinsHalf); err != nil {
		return err
	}
	if err := oneOf("spectrum.window", c.Spectrum.Window, knownWindows...); err != nil {
		return err
	}
	if c.Spectrum.AmplitudeRange <= 0 {
		return fmt.Errorf("spectrum.amplitude_range must be positive, got %g", c.Spectrum.AmplitudeRange)
	}
	if c.Terrain.Rows < 2 || c.Terrain.Cols < 2 {
		return fmt.Errorf("%w: got %dx%d", ErrGrid, c.Terrain.Rows, c.Terrain.Cols)
	}
	if c.Waves.Lines < 1 || c.Waves.Points < 2 {
		return fmt.Errorf("%w: got %d lines of %d points", ErrWaves, c.Waves.Lines, c.Waves.Points)
	}
	if err := oneOf("loop.schedule", c.Loop.Schedule, ScheduleBlocking, ScheduleTimer); err != nil {
		return err
	}
	if c.Loop.Schedule == ScheduleTimer && c.Loop.Interval <= 0 {
		return fmt.Errorf("loop.interval must be positive for the timer schedule, got %s", c.Loop.Interval)
	}
	if err := oneOf("display.surface", c.Display.Surface,
		SurfaceTUI, SurfaceWindow, SurfaceWebSocket, SurfaceUDP, SurfaceNone); err != nil {
		return err
	}
	if c.Display.Surface == SurfaceUDP && !strings.Contains(c.Transport.UDPTargetAddress, ":") {
		return fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", c.Transport.UDPTargetAddress)
	}
	if c.Transport.MinSendInterval < 0 {
		return fmt.Errorf("transport.min_send_interval must not be negative, got %s", c.Transport.MinSendInterval)
	}
	if c.Recording.Enabled && c.Recording.OutputFile == "" {
		return errors.New("recording.output_file must be set when recording is enabled")
	}
	if c.Recording.Enabled && c.Recording.BitDepth != 16 {
		return fmt.Errorf("recording.bit_depth %d unsupported, only 16-bit samples are captured", c.Recording.BitDepth)
	}
	return nil
}

// normalize lower-cases the enumerated settings so later comparisons are exact.
func (c *Config) normalize() {
	for _, s := range []*string{
		&c.Audio.Source, &c.Spectrum.Bins, &c.Spectrum.Window,
		&c.Loop.Schedule, &c.Display.Surface, &c.Command,
	} {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s %q unknown (want one of %s)", field, value, strings.Join(allowed, ", "))
}

// applyEnvOverrides patches the configuration from ENV_* variables. Values that
// fail to parse are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Infof("configuration: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("configuration: Overriding log_level from env: %s", val)
	}
	// ENV_SURFACE
	if val, ok := os.LookupEnv("ENV_SURFACE"); ok {
		cfg.Display.Surface = val
		applog.Infof("configuration: Overriding display.surface from env: %s", val)
	}
	// ENV_SOURCE
	if val, ok := os.LookupEnv("ENV_SOURCE"); ok {
		cfg.Audio.Source = val
		applog.Infof("configuration: Overriding audio.source from env: %s", val)
	}
	// ENV_BLOCK_SIZE
	if val, ok := os.LookupEnv("ENV_BLOCK_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Audio.BlockSize = n
			applog.Infof("configuration: Overriding audio.block_size from env: %d", n)
		}
	}
	// ENV_LOOP_INTERVAL
	if val, ok := os.LookupEnv("ENV_LOOP_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Loop.Interval = dur
			applog.Infof("configuration: Overriding loop.interval from env: %s", dur)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
		applog.Infof("configuration: Overriding transport.websocket_address from env: %s", val)
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
}
