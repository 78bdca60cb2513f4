//go:build headless

// SPDX-License-Identifier: MIT
package window

import (
	"context"

	"liveplot/internal/loop"
	"liveplot/internal/render"
)

// Window is a placeholder for builds without a display.
type Window struct{}

var _ render.Surface = (*Window)(nil)

func New(Options) (*Window, error) { return nil, ErrUnavailable }

func (*Window) Run(context.Context, *loop.Session) (loop.Summary, error) {
	return loop.Summary{}, ErrUnavailable
}

func (*Window) SetLines(string, render.Series) {}
func (*Window) SetMesh(render.Mesh)            {}
func (*Window) Flush() error                   { return ErrUnavailable }
func (*Window) Close() error                   { return nil }
