// SPDX-License-Identifier: MIT

// Package loop runs the render loop: one frame in flight, produced by a
// Pipeline, presented by a Surface, counted by the Session that owns both.
package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	applog "liveplot/internal/log"
	"liveplot/internal/render"
)

// ErrNotRunning is returned when a tick is dispatched to a session that is
// not Running.
var ErrNotRunning = errors.New("session is not running")

// State is the lifecycle state of a Session.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StopReason records why a session stopped.
type StopReason int

const (
	ReasonNone StopReason = iota
	ReasonClosed
	ReasonFault
	ReasonInterrupted
)

func (r StopReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonClosed:
		return "closed"
	case ReasonFault:
		return "fault"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// EventKind identifies what a dispatched event asks the session to do.
type EventKind int

const (
	EventTick EventKind = iota
	EventClose
	EventInterrupt
)

// Event is delivered to a session through Dispatch.
type Event struct {
	Kind EventKind
}

// Pipeline produces frames. Next writes one frame of updates to the surface;
// it must not flush.
type Pipeline interface {
	Next(s render.Surface) error
	Close() error
}

// Summary is the outcome of a finished session.
type Summary struct {
	Frames  int
	Elapsed time.Duration
	FPS     float64
	Reason  StopReason
	Err     error // Set when Reason is ReasonFault.
}

type handler func(Event) error

// Session owns the pipeline, the surface and the frame counter. Its methods
// must be called from a single goroutine.
type Session struct {
	pipeline Pipeline
	surface  render.Surface
	state    State
	frames   int
	started  time.Time
	stopped  time.Time
	clock    func() time.Time
	handlers map[EventKind]handler
	summary  Summary
}

// NewSession returns an Idle session.
func NewSession(p Pipeline, s render.Surface) *Session {
	sess := &Session{
		pipeline: p,
		surface:  s,
		clock:    time.Now,
	}
	sess.handlers = map[EventKind]handler{
		EventTick:      sess.onTick,
		EventClose:     sess.onClose,
		EventInterrupt: sess.onInterrupt,
	}
	return sess
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Frames is the number of frames presented so far.
func (s *Session) Frames() int { return s.frames }

// Start moves an Idle session to Running and records the start time.
func (s *Session) Start() error {
	if s.state != Idle {
		return fmt.Errorf("cannot start session in state %s", s.state)
	}
	s.state = Running
	s.started = s.clock()
	applog.Debugf("Session: running")
	return nil
}

// Dispatch routes ev to its handler. Ticks outside Running return
// ErrNotRunning; close and interrupt events on a stopped session are no-ops.
func (s *Session) Dispatch(ev Event) error {
	h, ok := s.handlers[ev.Kind]
	if !ok {
		return fmt.Errorf("no handler for event kind %d", ev.Kind)
	}
	switch s.state {
	case Running:
		return h(ev)
	case Stopped:
		if ev.Kind != EventTick {
			return nil
		}
	}
	return ErrNotRunning
}

// Tick dispatches one EventTick.
func (s *Session) Tick() error { return s.Dispatch(Event{Kind: EventTick}) }

func (s *Session) onTick(Event) error {
	if err := s.pipeline.Next(s.surface); err != nil {
		s.stop(ReasonFault, err)
		return err
	}
	if err := s.surface.Flush(); err != nil {
		if errors.Is(err, render.ErrDisplayClosed) {
			s.stop(ReasonClosed, nil)
		} else {
			s.stop(ReasonFault, err)
		}
		return err
	}
	s.frames++
	return nil
}

func (s *Session) onClose(Event) error {
	s.stop(ReasonClosed, nil)
	return nil
}

func (s *Session) onInterrupt(Event) error {
	s.stop(ReasonInterrupted, nil)
	return nil
}

// Stop ends the session. It is terminal and idempotent: later calls return
// the first summary unchanged.
func (s *Session) Stop(reason StopReason) Summary {
	s.stop(reason, nil)
	return s.summary
}

// Summary returns the outcome once the session has stopped.
func (s *Session) Summary() Summary { return s.summary }

func (s *Session) stop(reason StopReason, cause error) {
	if s.state == Stopped {
		return
	}
	s.state = Stopped
	s.stopped = s.clock()

	if err := s.pipeline.Close(); err != nil {
		applog.Warnf("Session: error closing pipeline: %v", err)
	}
	if err := s.surface.Close(); err != nil {
		applog.Warnf("Session: error closing surface: %v", err)
	}

	var elapsed time.Duration
	if !s.started.IsZero() {
		elapsed = s.stopped.Sub(s.started)
	}
	s.summary = Summary{
		Frames:  s.frames,
		Elapsed: elapsed,
		FPS:     FrameRate(s.frames, elapsed),
		Reason:  reason,
		Err:     cause,
	}

	if cause != nil {
		applog.Errorf("Session: stopped (%s): %v", reason, cause)
	} else {
		applog.Infof("Session: stopped (%s)", reason)
	}
	applog.Infof("Session: %d frames in %s, average frame rate = %.0f FPS",
		s.frames, elapsed.Round(time.Millisecond), s.summary.FPS)
}

// Run drives the session as fast as the pipeline delivers frames, which for
// a live source is the block rate of the device. It returns when the session
// stops; cancelling ctx stops it with ReasonInterrupted.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if s.state == Idle {
		if err := s.Start(); err != nil {
			return s.summary, err
		}
	}
	for s.state == Running {
		select {
		case <-ctx.Done():
			_ = s.Dispatch(Event{Kind: EventInterrupt})
		default:
			_ = s.Tick()
		}
	}
	return s.summary, s.summary.Err
}

// RunTimer drives the session from a ticker firing every interval. A tick
// that arrives while a frame is still being produced is dropped by the
// ticker, so there is never more than one frame in flight.
func (s *Session) RunTimer(ctx context.Context, interval time.Duration) (Summary, error) {
	if interval <= 0 {
		return s.summary, fmt.Errorf("timer interval must be positive, got %s", interval)
	}
	if s.state == Idle {
		if err := s.Start(); err != nil {
			return s.summary, err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for s.state == Running {
		select {
		case <-ctx.Done():
			_ = s.Dispatch(Event{Kind: EventInterrupt})
		case <-ticker.C:
			_ = s.Tick()
		}
	}
	return s.summary, s.summary.Err
}

// FrameRate returns frames per second, or 0 for a zero or negative elapsed
// time.
func FrameRate(frames int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) / elapsed.Seconds()
}
