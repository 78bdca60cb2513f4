// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"liveplot/cmd"
	applog "liveplot/internal/log"
	"liveplot/pkg/build"
)

// main is the entry point for the visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Install signal handling
//   - Parse command line arguments and load configuration
//
// 2. Hot Path:
//   - Acquire, transform and render frames until the session stops
//
// 3. Shutdown Phase (Cold Path):
//   - The session closes its pipeline and surface
//   - Report the average frame rate
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info incomplete: %v", err)
	}

	// SIGINT and SIGTERM stop the session with reason "interrupted".
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ==================== HOT PATH ====================

	if err := cmd.Execute(ctx); err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}
