// SPDX-License-Identifier: MIT

// Package transport publishes frames to remote consumers instead of drawing
// them locally.
package transport

import (
	"slices"
	"sync"
	"time"

	"liveplot/internal/render"
)

// Transport sends encoded frame updates. Implementations must be safe for
// concurrent use.
type Transport interface {
	Send(msg *Message) error
	Close() error
}

// Message kinds.
const (
	KindLines = "lines"
	KindMesh  = "mesh"
)

// Message is one update broadcast on Flush. Lines messages carry a series,
// mesh messages carry the grid elevations in row-major order.
type Message struct {
	Seq   uint64       `json:"seq"`
	Kind  string       `json:"kind"`
	ID    string       `json:"id,omitempty"`
	Name  string       `json:"name,omitempty"`
	X     []float64    `json:"x,omitempty"`
	Y     []float64    `json:"y,omitempty"`
	Z     []float64    `json:"z,omitempty"`
	Color *render.RGBA `json:"color,omitempty"`
	Rows  int          `json:"rows,omitempty"`
	Cols  int          `json:"cols,omitempty"`
}

// Surface adapts a Transport to render.Surface. Updates are buffered until
// Flush, which sends one message per pending series or mesh. A network
// surface has no window to close, so Flush never reports
// render.ErrDisplayClosed.
type Surface struct {
	transport Transport
	now       func() time.Time

	mu          sync.Mutex
	seq         uint64
	pending     map[string]render.Series
	mesh        *render.Mesh
	closed      bool
	minInterval time.Duration
	lastFlush   time.Time
}

var _ render.Surface = (*Surface)(nil)

// NewSurface returns a surface publishing through t.
func NewSurface(t Transport) *Surface {
	return &Surface{
		transport: t,
		now:       time.Now,
		pending:   make(map[string]render.Series),
	}
}

// SetMinInterval limits how often frames go out. A Flush sooner than d
// after the last one sends nothing and keeps the updates pending, so the
// next frame that goes out carries the latest data. Zero sends every frame.
func (s *Surface) SetMinInterval(d time.Duration) {
	s.mu.Lock()
	s.minInterval = d
	s.mu.Unlock()
}

// SetLines implements render.Surface.
func (s *Surface) SetLines(id string, series render.Series) {
	s.mu.Lock()
	s.pending[id] = series
	s.mu.Unlock()
}

// SetMesh implements render.Surface.
func (s *Surface) SetMesh(m render.Mesh) {
	s.mu.Lock()
	s.mesh = &m
	s.mu.Unlock()
}

// Flush implements render.Surface. Series are sent in id order, then the
// mesh. The first send error is returned; remaining updates are dropped.
func (s *Surface) Flush() error {
	s.mu.Lock()
	if s.minInterval > 0 {
		now := s.now()
		if !s.lastFlush.IsZero() && now.Sub(s.lastFlush) < s.minInterval {
			s.mu.Unlock()
			return nil
		}
		s.lastFlush = now
	}
	msgs := s.drain()
	s.mu.Unlock()

	for _, msg := range msgs {
		if err := s.transport.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// Seq returns the sequence number of the last message built.
func (s *Surface) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close implements render.Surface and closes the transport once.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.transport.Close()
}

// drain converts the pending updates to messages. Must hold s.mu.
func (s *Surface) drain() []*Message {
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	msgs := make([]*Message, 0, len(ids)+1)
	for _, id := range ids {
		series := s.pending[id]
		s.seq++
		msg := &Message{
			Seq:  s.seq,
			Kind: KindLines,
			ID:   id,
			Name: series.Name,
			X:    series.X,
			Y:    series.Y,
		}
		if series.Is3D() {
			msg.Z = series.Z
		}
		if series.Color != (render.RGBA{}) {
			c := series.Color
			msg.Color = &c
		}
		msgs = append(msgs, msg)
		delete(s.pending, id)
	}

	if s.mesh != nil {
		s.seq++
		msgs = append(msgs, &Message{
			Seq:  s.seq,
			Kind: KindMesh,
			Rows: s.mesh.Rows,
			Cols: s.mesh.Cols,
			Z:    Elevations(*s.mesh),
		})
		s.mesh = nil
	}
	return msgs
}

// Elevations returns the Z coordinate of every mesh vertex.
func Elevations(m render.Mesh) []float64 {
	z := make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		z[i] = v.Z
	}
	return z
}
