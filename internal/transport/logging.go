// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	applog "liveplot/internal/log"
)

// LoggingTransport implements Transport by logging a one-line summary of each
// message at debug level. It backs the "none" surface, where frames are
// produced and counted but not shown anywhere.
type LoggingTransport struct {
	sent atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send implements Transport. It never fails.
func (lt *LoggingTransport) Send(msg *Message) error {
	lt.sent.Add(1)
	switch msg.Kind {
	case KindMesh:
		applog.Debugf("Transport: #%d mesh %dx%d", msg.Seq, msg.Rows, msg.Cols)
	default:
		applog.Debugf("Transport: #%d %s %q (%d points)", msg.Seq, msg.ID, msg.Name, len(msg.Y))
	}
	return nil
}

// Sent returns the number of messages logged so far.
func (lt *LoggingTransport) Sent() uint64 { return lt.sent.Load() }

// Close implements Transport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: LoggingTransport closed after %d messages", lt.sent.Load())
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
