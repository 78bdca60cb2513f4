// SPDX-License-Identifier: MIT
package render

import (
	"slices"
	"sync"
)

// Headless records the latest frame in memory. It is the surface used for
// -surface none and in tests.
type Headless struct {
	mu         sync.Mutex
	lines      map[string]Series
	order      []string
	mesh       *Mesh
	flushes    int
	closeAfter int
	closed     bool
}

// NewHeadless returns a recorder that never closes on its own.
func NewHeadless() *Headless {
	return &Headless{
		lines:      make(map[string]Series),
		closeAfter: -1,
	}
}

// CloseAfter makes the surface behave as if the user closed it after n
// successful flushes: flush n+1 returns ErrDisplayClosed.
func (h *Headless) CloseAfter(n int) *Headless {
	h.mu.Lock()
	h.closeAfter = n
	h.mu.Unlock()
	return h
}

func (h *Headless) SetLines(id string, s Series) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.lines[id]; !ok {
		h.order = append(h.order, id)
	}
	h.lines[id] = s
}

func (h *Headless) SetMesh(m Mesh) {
	h.mu.Lock()
	h.mesh = &m
	h.mu.Unlock()
}

func (h *Headless) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrDisplayClosed
	}
	if h.closeAfter >= 0 && h.flushes >= h.closeAfter {
		h.closed = true
		return ErrDisplayClosed
	}
	h.flushes++
	return nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// Flushes is the number of successful flushes.
func (h *Headless) Flushes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushes
}

// Lines returns the last series set under id.
func (h *Headless) Lines(id string) (Series, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.lines[id]
	return s, ok
}

// LineIDs returns series ids in the order they were first set.
func (h *Headless) LineIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}

// Mesh returns the last mesh set, if any.
func (h *Headless) Mesh() (Mesh, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mesh == nil {
		return Mesh{}, false
	}
	return *h.mesh, true
}
