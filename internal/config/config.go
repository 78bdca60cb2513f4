// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the acquire/transform/render loop.
const (
	// Audio defaults match a mono 16-bit microphone capture.
	DefaultChannels       = 1           // Mono audio
	DefaultDeviceID       = MinDeviceID // System default device
	DefaultSampleRate     = 44100       // CD-quality audio
	DefaultBlockSize      = 2048        // Samples per frame
	DefaultLowLatency     = false
	DefaultSource         = SourceMicrophone
	DefaultToneHz         = 440.0
	MaxHarmonics          = 64
	DefaultAmplitudeRange = 32768.0 // Half range of int16 samples
	DefaultBins           = BinsFull
	DefaultWindow         = "rectangular"

	// Terrain defaults reproduce a 42x42 fly-over grid.
	DefaultTerrainRows      = 42
	DefaultTerrainCols      = 42
	DefaultTerrainSpacing   = 1.0
	DefaultTerrainScale     = 0.2 // Grid index to noise coordinate
	DefaultTerrainAmplitude = 2.5
	DefaultTerrainStep      = -0.18
	DefaultTerrainSeed      = 0

	DefaultWaveLines     = 50
	DefaultWavePoints    = 1000
	DefaultWaveExtent    = 10.0
	DefaultWavePhaseStep = -0.0002

	DefaultSchedule = ScheduleBlocking
	DefaultInterval = 10 * time.Millisecond

	DefaultSurface       = SurfaceTUI
	DefaultWidth         = 1280
	DefaultHeight        = 720
	DefaultWSAddress     = ":8080"
	DefaultUDPTarget     = "127.0.0.1:9090"
	DefaultRecordingBits = 16

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinBlockSize  = 2
	MaxBlockSize  = 8192
)

// Names accepted for the enumerated settings.
const (
	SourceMicrophone = "mic"
	SourceSine       = "sine"
	SourceSweep      = "sweep"
	SourceSilence    = "silence"

	BinsFull = "full"
	BinsHalf = "half"

	ScheduleBlocking = "blocking"
	ScheduleTimer    = "timer"

	SurfaceTUI       = "tui"
	SurfaceWindow    = "window"
	SurfaceWebSocket = "websocket"
	SurfaceUDP       = "udp"
	SurfaceNone      = "none"

	CommandSpectrum = "spectrum"
	CommandTerrain  = "terrain"
	CommandWaves    = "waves"
	CommandList     = "list"
	CommandDevices  = "devices"
)

// Config represents the main application configuration structure, loaded from
// YAML and then overridden by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // Logging level (debug, info, warn, error).
	Command   string          `yaml:"command,omitempty"` // Which loop or one-off command to run.
	Audio     AudioConfig     `yaml:"audio"`
	Spectrum  SpectrumConfig  `yaml:"spectrum"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Waves     WavesConfig     `yaml:"waves"`
	Loop      LoopConfig      `yaml:"loop"`
	Display   DisplayConfig   `yaml:"display"`
	Transport TransportConfig `yaml:"transport"`
	Recording RecordingConfig `yaml:"recording"`
}

// AudioConfig holds settings related to sample acquisition.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // PortAudio device index (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`  // Sample rate in Hz.
	BlockSize   int     `yaml:"block_size"`   // Samples per block (frames per buffer).
	Channels    int     `yaml:"channels"`     // Channels opened on the device; only the first is analysed.
	LowLatency  bool    `yaml:"low_latency"`  // Request the device's low input latency.
	Source      string  `yaml:"source"`       // mic, sine, sweep or silence.
	ToneHz      float64 `yaml:"tone_hz"`      // Fundamental of the sine source.
	Harmonics   int     `yaml:"harmonics"`    // Partials of the sine source, falling as 1/k (0 or 1 = pure tone).
	Overlap     int     `yaml:"overlap"`      // Analysis window length when larger than block_size (0 = off).
	Gate        float64 `yaml:"gate"`         // Noise gate threshold as a fraction of full scale (0 = off).
}

// SpectrumConfig holds the spectral transform settings.
type SpectrumConfig struct {
	Bins           string  `yaml:"bins"`            // full (N bins) or half (N/2 bins).
	AmplitudeRange float64 `yaml:"amplitude_range"` // Half amplitude range used by the normalization divisor.
	Window         string  `yaml:"window"`          // Window function name.
}

// TerrainConfig holds the noise height-field settings.
type TerrainConfig struct {
	Rows      int     `yaml:"rows"`
	Cols      int     `yaml:"cols"`
	Spacing   float64 `yaml:"spacing"`   // World units between grid points.
	Scale     float64 `yaml:"scale"`     // Noise coordinate per grid step.
	Amplitude float64 `yaml:"amplitude"` // Elevation multiplier.
	Step      float64 `yaml:"step"`      // Scroll offset increment per frame.
	Seed      int64   `yaml:"seed"`
}

// WavesConfig holds the multi-sine trace settings.
type WavesConfig struct {
	Lines     int     `yaml:"lines"`
	Points    int     `yaml:"points"`
	Extent    float64 `yaml:"extent"`
	PhaseStep float64 `yaml:"phase_step"`
}

// LoopConfig selects how the render loop is scheduled.
type LoopConfig struct {
	Schedule string        `yaml:"schedule"` // blocking or timer.
	Interval time.Duration `yaml:"interval"` // Tick interval for the timer schedule.
}

// DisplayConfig selects and sizes the display surface.
type DisplayConfig struct {
	Surface string `yaml:"surface"`  // tui, window, websocket, udp or none.
	Width   int    `yaml:"width"`    // Window width in pixels.
	Height  int    `yaml:"height"`   // Window height in pixels.
	Title   string `yaml:"title"`    // Window title.
	LogFile string `yaml:"log_file"` // Log destination while the TUI owns the terminal.
}

// TransportConfig holds settings for network surfaces.
type TransportConfig struct {
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for the /ws endpoint.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target for UDP frame packets.
	MinSendInterval  time.Duration `yaml:"min_send_interval"`  // Least time between WebSocket frames (0 = every frame).
}

// RecordingConfig holds settings for teeing captured blocks into a WAV file.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"`
	BitDepth   int    `yaml:"bit_depth"`
}

// NewConfig creates a new Config instance with default values.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			BlockSize:   DefaultBlockSize,
			Channels:    DefaultChannels,
			LowLatency:  DefaultLowLatency,
			Source:      DefaultSource,
			ToneHz:      DefaultToneHz,
		},
		Spectrum: SpectrumConfig{
			Bins:           DefaultBins,
			AmplitudeRange: DefaultAmplitudeRange,
			Window:         DefaultWindow,
		},
		Terrain: TerrainConfig{
			Rows:      DefaultTerrainRows,
			Cols:      DefaultTerrainCols,
			Spacing:   DefaultTerrainSpacing,
			Scale:     DefaultTerrainScale,
			Amplitude: DefaultTerrainAmplitude,
			Step:      DefaultTerrainStep,
			Seed:      DefaultTerrainSeed,
		},
		Waves: WavesConfig{
			Lines:     DefaultWaveLines,
			Points:    DefaultWavePoints,
			Extent:    DefaultWaveExtent,
			PhaseStep: DefaultWavePhaseStep,
		},
		Loop: LoopConfig{
			Schedule: DefaultSchedule,
			Interval: DefaultInterval,
		},
		Display: DisplayConfig{
			Surface: DefaultSurface,
			Width:   DefaultWidth,
			Height:  DefaultHeight,
			Title:   "liveplot",
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWSAddress,
			UDPTargetAddress: DefaultUDPTarget,
		},
		Recording: RecordingConfig{
			BitDepth: DefaultRecordingBits,
		},
	}
}
