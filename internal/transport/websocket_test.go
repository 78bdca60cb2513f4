// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"liveplot/internal/render"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestWebSocketBroadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()

	conn := dial(t, wst)
	defer conn.Close()

	s := NewSurface(wst)
	s.SetLines("spectrum", render.Series{Name: "spectrum", X: []float64{0, 21.5}, Y: []float64{0.25, 0}})
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Seq != 1 || msg.Kind != KindLines || msg.ID != "spectrum" {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.Y) != 2 || msg.Y[0] != 0.25 {
		t.Errorf("values = %v", msg.Y)
	}
}

func TestWebSocketClientDisconnect(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()

	conn := dial(t, wst)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Sending with nobody connected is not an error.
	if err := wst.Send(&Message{Kind: KindLines}); err != nil {
		t.Error(err)
	}
}

func TestWebSocketSlowClientDrops(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()

	conn := dial(t, wst)
	defer conn.Close()

	// The client never reads; sends must not block.
	done := make(chan struct{})
	go func() {
		payload := make([]float64, 4096)
		for i := range 10 * clientQueueSize {
			_ = wst.Send(&Message{Seq: uint64(i), Kind: KindLines, Y: payload})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked on a slow client")
	}
}

func TestWebSocketRateLimitKeepsWholeFrames(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()

	conn := dial(t, wst)
	defer conn.Close()

	s := NewSurface(wst)
	s.SetMinInterval(time.Hour)
	for range 2 {
		s.SetLines("spectrum", render.Series{X: []float64{0}, Y: []float64{1}})
		s.SetLines("waveform", render.Series{X: []float64{0}, Y: []float64{2}})
		if err := s.Flush(); err != nil {
			t.Fatal(err)
		}
	}

	// Every series of the first frame arrives.
	for _, want := range []string{"spectrum", "waveform"} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil || msg.ID != want {
			t.Fatalf("message = %+v, %v; want %s", msg, err, want)
		}
	}
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var msg Message
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("rate-limited frame delivered: %+v", msg)
	}
}

func TestWebSocketListenError(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()
	if _, err := NewWebSocketTransport(wst.Addr().String()); err == nil {
		t.Error("expected error listening on a port in use")
	}
}
