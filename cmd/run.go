// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"liveplot/internal/analysis"
	"liveplot/internal/audio"
	"liveplot/internal/config"
	applog "liveplot/internal/log"
	"liveplot/internal/loop"
	"liveplot/internal/pipeline"
	"liveplot/internal/render"
	"liveplot/internal/source"
	"liveplot/internal/terrain"
	"liveplot/internal/transport"
	"liveplot/internal/transport/udp"
	"liveplot/internal/tui"
	"liveplot/internal/waves"
	"liveplot/internal/window"

	"golang.org/x/term"
)

// mirrors are network outputs fed alongside the display surface.
type mirrors struct {
	websocket string
	udp       string
}

// capture holds the input stages run reports on at shutdown.
type capture struct {
	recorder *audio.Recorder
	mic      *audio.Microphone
}

// Sweep source range.
const (
	sweepStartHz  = 20.0
	sweepDuration = 10.0 // Seconds per sweep.
)

// run builds the pipeline and surface for cfg.Command and drives a session
// until it stops.
func run(ctx context.Context, cfg *config.Config, out mirrors) error {
	p, in, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	surface, win, restore, err := buildSurface(cfg, out)
	if err != nil {
		_ = p.Close()
		return err
	}
	defer restore()

	sess := loop.NewSession(p, surface)

	var sum loop.Summary
	switch {
	case win != nil:
		sum, err = win.Run(ctx, sess)
	case cfg.Loop.Schedule == config.ScheduleTimer:
		sum, err = sess.RunTimer(ctx, cfg.Loop.Interval)
	default:
		sum, err = sess.Run(ctx)
	}
	// The session closed the surface, so the terminal is ours again.
	restore()

	fmt.Printf("%d frames in %s, average frame rate = %.0f FPS\n",
		sum.Frames, sum.Elapsed.Round(time.Millisecond), sum.FPS)
	if in.mic != nil {
		if n := in.mic.Overflows(); n > 0 {
			fmt.Printf("%d input overflows\n", n)
		}
	}
	if in.recorder != nil {
		fmt.Printf("Recording saved to: %s\n", cfg.Recording.OutputFile)
	}
	return err
}

// buildPipeline returns the pipeline for cfg.Command. cleanup releases
// process-wide resources once the session has closed the pipeline.
func buildPipeline(cfg *config.Config) (loop.Pipeline, capture, func(), error) {
	noop := func() {}

	switch cfg.Command {
	case config.CommandTerrain:
		field, err := terrain.New(terrain.Options{
			Rows:      cfg.Terrain.Rows,
			Cols:      cfg.Terrain.Cols,
			Spacing:   cfg.Terrain.Spacing,
			Scale:     cfg.Terrain.Scale,
			Amplitude: cfg.Terrain.Amplitude,
			Step:      cfg.Terrain.Step,
			Seed:      cfg.Terrain.Seed,
		})
		if err != nil {
			return nil, capture{}, noop, err
		}
		return pipeline.NewTerrain(field), capture{}, noop, nil

	case config.CommandWaves:
		field, err := waves.New(waves.Options{
			Lines:     cfg.Waves.Lines,
			Points:    cfg.Waves.Points,
			Extent:    cfg.Waves.Extent,
			PhaseStep: cfg.Waves.PhaseStep,
		})
		if err != nil {
			return nil, capture{}, noop, err
		}
		return pipeline.NewWaves(field), capture{}, noop, nil
	}

	src, in, cleanup, err := buildSource(cfg)
	if err != nil {
		return nil, capture{}, noop, err
	}

	p, err := newSpectrum(cfg, src)
	if err != nil {
		_ = src.Close()
		cleanup()
		return nil, capture{}, noop, err
	}
	return p, in, cleanup, nil
}

func newSpectrum(cfg *config.Config, src source.Source) (*pipeline.Spectrum, error) {
	bins, err := analysis.ParseBins(cfg.Spectrum.Bins)
	if err != nil {
		return nil, err
	}
	win, err := analysis.ParseWindowFunc(cfg.Spectrum.Window)
	if err != nil {
		return nil, err
	}
	t, err := analysis.NewSpectrum(analysis.SpectrumOptions{
		Size:           src.BlockSize(),
		SampleRate:     cfg.Audio.SampleRate,
		Bins:           bins,
		AmplitudeRange: cfg.Spectrum.AmplitudeRange,
		Window:         win,
	})
	if err != nil {
		return nil, err
	}
	return pipeline.NewSpectrum(src, t)
}

// buildSource opens the configured sample source and stacks the recorder,
// gate and overlap stages on it in that order.
func buildSource(cfg *config.Config) (source.Source, capture, func(), error) {
	var (
		src     source.Source
		in      capture
		cleanup = func() {}
	)
	rate, block := cfg.Audio.SampleRate, cfg.Audio.BlockSize

	switch cfg.Audio.Source {
	case config.SourceMicrophone:
		if err := audio.Initialize(); err != nil {
			return nil, in, cleanup, err
		}
		mic, err := audio.NewMicrophone(cfg.Audio)
		if err != nil {
			_ = audio.Terminate()
			return nil, in, cleanup, err
		}
		src, in.mic = mic, mic
		cleanup = func() {
			if err := audio.Terminate(); err != nil {
				applog.Warnf("PortAudio terminate: %v", err)
			}
		}
	case config.SourceSine:
		sine := source.NewSine(rate, block, cfg.Audio.ToneHz)
		if cfg.Audio.Harmonics > 1 {
			sine.SetHarmonics(source.HarmonicSeries(cfg.Audio.Harmonics))
		}
		src = source.Paced(sine, rate)
	case config.SourceSweep:
		src = source.Paced(source.NewSweep(rate, block, sweepStartHz, rate/2, sweepDuration), rate)
	default:
		src = source.Paced(source.NewSilence(block), rate)
	}

	if cfg.Recording.Enabled {
		recorder := audio.NewRecorder(src, rate)
		if err := recorder.StartRecording(cfg.Recording.OutputFile); err != nil {
			_ = src.Close()
			cleanup()
			return nil, capture{}, func() {}, err
		}
		src, in.recorder = recorder, recorder
	}

	if cfg.Audio.Gate > 0 {
		src = audio.NewGate(src, cfg.Audio.Gate)
	}

	if cfg.Audio.Overlap > 0 {
		o, err := source.NewOverlap(src, cfg.Audio.Overlap)
		if err != nil {
			_ = src.Close()
			cleanup()
			return nil, capture{}, func() {}, err
		}
		src = o
	}
	return src, in, cleanup, nil
}

// buildSurface opens the display surface and any mirrors. restore undoes
// the log redirection of the terminal UI and may be called more than once.
func buildSurface(cfg *config.Config, out mirrors) (render.Surface, *window.Window, func(), error) {
	restore := func() {}
	name := cfg.Display.Surface
	if name == config.SurfaceTUI && !term.IsTerminal(int(os.Stdout.Fd())) {
		applog.Warnf("stdout is not a terminal, using surface %q", config.SurfaceNone)
		name = config.SurfaceNone
	}

	var (
		surfaces []render.Surface
		win      *window.Window
	)
	fail := func(err error) (render.Surface, *window.Window, func(), error) {
		for _, s := range surfaces {
			_ = s.Close()
		}
		restore()
		return nil, nil, func() {}, err
	}

	switch name {
	case config.SurfaceTUI:
		logOut, closeLog, err := tuiLogOutput(cfg.Display.LogFile)
		if err != nil {
			return fail(err)
		}
		applog.SetOutput(logOut)
		restored := false
		restore = func() {
			if restored {
				return
			}
			restored = true
			applog.SetOutput(os.Stderr)
			closeLog()
		}
		surfaces = append(surfaces, tui.NewScope(cfg.Display.Title))
	case config.SurfaceWindow:
		w, err := window.New(window.Options{
			Title:      cfg.Display.Title,
			Width:      cfg.Display.Width,
			Height:     cfg.Display.Height,
			Interval:   windowInterval(cfg),
			Camera:     render.DefaultCamera(),
			SampleRate: cfg.Audio.SampleRate,
		})
		if err != nil {
			return fail(err)
		}
		win = w
		surfaces = append(surfaces, w)
	case config.SurfaceWebSocket:
		out.websocket = cfg.Transport.WebSocketAddress
	case config.SurfaceUDP:
		out.udp = cfg.Transport.UDPTargetAddress
	default:
		surfaces = append(surfaces, transport.NewSurface(transport.NewLoggingTransport()))
	}

	if out.websocket != "" {
		wst, err := transport.NewWebSocketTransport(out.websocket)
		if err != nil {
			return fail(err)
		}
		ws := transport.NewSurface(wst)
		ws.SetMinInterval(cfg.Transport.MinSendInterval)
		surfaces = append(surfaces, ws)
	}
	if out.udp != "" {
		sender, err := udp.NewSender(out.udp)
		if err != nil {
			return fail(err)
		}
		surfaces = append(surfaces, udp.NewPublisher(sender, pipeline.SpectrumID, pipeline.WaveformID))
	}
	return render.Multi(surfaces...), win, restore, nil
}

// windowInterval is the window's update period. The blocking schedule lets
// the source set the pace, so the window updates as often as it can.
func windowInterval(cfg *config.Config) time.Duration {
	if cfg.Loop.Schedule == config.ScheduleTimer {
		return cfg.Loop.Interval
	}
	return 0
}

// tuiLogOutput returns where logs go while the terminal UI owns the screen.
func tuiLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
