// SPDX-License-Identifier: MIT

// Package cmd holds the command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"liveplot/internal/audio"
	"liveplot/internal/config"
	applog "liveplot/internal/log"
	"liveplot/internal/tui"
	"liveplot/pkg/build"

	"github.com/spf13/cobra"
)

// flags holds the persistent flag values. They only override the loaded
// configuration when set on the command line.
type flags struct {
	configPath string
	device     int
	channels   int
	sampleRate float64
	blockSize  int
	lowLatency bool
	source     string
	surface    string
	schedule   string
	interval   time.Duration
	listen     string
	udpTarget  string
	sendEvery  time.Duration
	record     string
	verbose    bool

	bins      string
	window    string
	gate      float64
	harmonics int
	seed      int64
}

// Execute parses os.Args and runs the selected command until it finishes or
// ctx is cancelled.
func Execute(ctx context.Context) error {
	rootCmd := newRootCommand(&flags{})
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(f *flags) *cobra.Command {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	loopCommand := func(name, short string) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, out, err := f.load(cmd, name)
				if err != nil {
					return err
				}
				return run(cmd.Context(), cfg, out)
			},
		}
	}

	spectrumCmd := loopCommand(config.CommandSpectrum, "Live waveform and spectrum of an audio input")
	spectrumCmd.Flags().StringVar(&f.bins, "bins", config.DefaultBins, "Spectrum bins: full (N) or half (N/2)")
	spectrumCmd.Flags().StringVar(&f.window, "window", config.DefaultWindow, "Window function applied before the FFT")
	spectrumCmd.Flags().Float64Var(&f.gate, "gate", 0, "Noise gate threshold as a fraction of full scale (0 = off)")
	spectrumCmd.Flags().IntVar(&f.harmonics, "harmonics", 0, "Partials of the sine source (0 = pure tone)")

	terrainCmd := loopCommand(config.CommandTerrain, "Animated procedural noise terrain")
	terrainCmd.Flags().Int64Var(&f.seed, "seed", config.DefaultTerrainSeed, "Noise seed")

	wavesCmd := loopCommand(config.CommandWaves, "Animated stack of 3-D sine traces")

	listCmd := &cobra.Command{
		Use:   config.CommandList,
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices(cmd.OutOrStdout())
		},
	}

	devicesCmd := &cobra.Command{
		Use:   config.CommandDevices,
		Short: "Pick an input device interactively, then show its spectrum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, out, err := f.load(cmd, config.CommandSpectrum)
			if err != nil {
				return err
			}
			sel, ok, err := tui.StartDeviceListUI()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			cfg.Audio.Source = config.SourceMicrophone
			cfg.Audio.InputDevice = sel.DeviceID
			cfg.Audio.SampleRate = sel.SampleRate
			cfg.Audio.BlockSize = sel.BlockSize
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using %s (device %d) at %.0f Hz, %d samples per block\n",
				sel.DeviceName, sel.DeviceID, sel.SampleRate, sel.BlockSize)
			return run(cmd.Context(), cfg, out)
		},
	}

	rootCmd.AddCommand(spectrumCmd, terrainCmd, wavesCmd, listCmd, devicesCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to a YAML configuration file")

	// Audio Device Configuration
	pf.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&f.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to open (only the first is analysed)")
	pf.Float64VarP(&f.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&f.blockSize, "block-size", "b", config.DefaultBlockSize,
		"Samples per block, which is also the FFT size")
	pf.BoolVarP(&f.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	pf.StringVar(&f.source, "source", config.DefaultSource,
		"Sample source: mic, sine, sweep or silence")

	// Loop and display
	pf.StringVar(&f.surface, "surface", config.DefaultSurface,
		"Display surface: tui, window, websocket, udp or none")
	pf.StringVar(&f.schedule, "schedule", config.DefaultSchedule,
		"Loop schedule: blocking or timer")
	pf.DurationVar(&f.interval, "interval", config.DefaultInterval,
		"Tick interval for the timer schedule")
	pf.StringVar(&f.listen, "listen", "",
		"Also stream frames to WebSocket clients on this address (e.g. :8080)")
	pf.StringVar(&f.udpTarget, "udp-target", "",
		"Also send frames as UDP packets to this host:port")
	pf.DurationVar(&f.sendEvery, "send-interval", 0,
		"Least time between WebSocket frames (0 sends every frame)")

	// Recording Configuration
	pf.StringVarP(&f.record, "record", "r", "",
		"Record the input to this WAV file")

	// Debug Configuration
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Show verbose output")

	return rootCmd
}

// load reads the configuration file and applies the flags that were set.
func (f *flags) load(cmd *cobra.Command, command string) (*config.Config, mirrors, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, mirrors{}, err
	}
	cfg.Command = command

	changed := cmd.Flags().Changed
	if changed("device") {
		cfg.Audio.InputDevice = f.device
	}
	if changed("channels") {
		cfg.Audio.Channels = f.channels
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("block-size") {
		cfg.Audio.BlockSize = f.blockSize
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("source") {
		cfg.Audio.Source = f.source
	}
	if changed("surface") {
		cfg.Display.Surface = f.surface
	}
	if changed("schedule") {
		cfg.Loop.Schedule = f.schedule
	} else if command != config.CommandSpectrum && cfg.Loop.Schedule == config.DefaultSchedule {
		// Generated scenes have nothing to block on.
		cfg.Loop.Schedule = config.ScheduleTimer
	}
	if changed("interval") {
		cfg.Loop.Interval = f.interval
	}
	if changed("listen") {
		cfg.Transport.WebSocketAddress = f.listen
	}
	if changed("udp-target") {
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
	if changed("send-interval") {
		cfg.Transport.MinSendInterval = f.sendEvery
	}
	if changed("record") {
		cfg.Recording.Enabled = true
		cfg.Recording.OutputFile = f.record
	}
	if changed("bins") {
		cfg.Spectrum.Bins = f.bins
	}
	if changed("window") {
		cfg.Spectrum.Window = f.window
	}
	if changed("gate") {
		cfg.Audio.Gate = f.gate
	}
	if changed("harmonics") {
		cfg.Audio.Harmonics = f.harmonics
	}
	if changed("seed") {
		cfg.Terrain.Seed = f.seed
	}
	if f.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, mirrors{}, fmt.Errorf("invalid configuration: %w", err)
	}

	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		applog.Warnf("Unknown log level %q, using %s", cfg.LogLevel, level)
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	// Mirrors are opt-in on the command line; the config addresses alone only
	// serve the websocket and udp surfaces.
	var out mirrors
	if changed("listen") && cfg.Display.Surface != config.SurfaceWebSocket {
		out.websocket = cfg.Transport.WebSocketAddress
	}
	if changed("udp-target") && cfg.Display.Surface != config.SurfaceUDP {
		out.udp = cfg.Transport.UDPTargetAddress
	}
	return cfg, out, nil
}
