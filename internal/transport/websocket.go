// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "liveplot/internal/log"

	"github.com/gorilla/websocket"
)

const (
	// Messages queued per client before further messages to it are dropped.
	clientQueueSize = 64
	writeWait       = time.Second
)

// client is one connected viewer with its own send queue, so a slow reader
// only loses its own messages.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped uint64
}

// WebSocketTransport broadcasts JSON messages to every client connected to
// the /ws endpoint.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	server    *http.Server
	listener  net.Listener
	clients   map[*client]bool
	clientsMu sync.Mutex
	wg        sync.WaitGroup
}

var _ Transport = (*WebSocketTransport)(nil)

// NewWebSocketTransport listens on addr and starts serving /ws. An address
// with port 0 picks a free port; see Addr.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("websocket listen on %s: %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local viewers are served from any origin.
			},
		},
		listener: ln,
		clients:  make(map[*client]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	wst.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		applog.Infof("WebSocketTransport: Starting WebSocket server on %s", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	return wst, nil
}

// Addr returns the address the server is listening on.
func (wst *WebSocketTransport) Addr() net.Addr { return wst.listener.Addr() }

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueSize)}
	wst.clientsMu.Lock()
	wst.clients[c] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client %s connected, total: %d", conn.RemoteAddr(), total)

	wst.wg.Add(2)
	go wst.writePump(c)
	go wst.readPump(c)
}

// readPump discards client input and unregisters the client when the
// connection fails.
func (wst *WebSocketTransport) readPump(c *client) {
	defer wst.wg.Done()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			wst.remove(c)
			return
		}
	}
}

func (wst *WebSocketTransport) writePump(c *client) {
	defer wst.wg.Done()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			applog.Debugf("WebSocketTransport: Error sending to client: %v", err)
			wst.remove(c)
			// Drain so remove never blocks on a full queue.
			for range c.send {
			}
			return
		}
	}
}

func (wst *WebSocketTransport) remove(c *client) {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	if !wst.clients[c] {
		return
	}
	delete(wst.clients, c)
	close(c.send)
	_ = c.conn.Close()
	applog.Infof("WebSocketTransport: Client disconnected (%d dropped), total: %d", c.dropped, len(wst.clients))
}

// Send implements Transport. The message is marshalled once and queued for
// every client; clients whose queue is full miss it.
func (wst *WebSocketTransport) Send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("websocket encode: %w", err)
	}

	wst.clientsMu.Lock()
	for c := range wst.clients {
		select {
		case c.send <- data:
		default:
			c.dropped++
		}
	}
	wst.clientsMu.Unlock()
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	applog.Infof("WebSocketTransport: Closing server")

	wst.clientsMu.Lock()
	for c := range wst.clients {
		delete(wst.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
	wst.clientsMu.Unlock()

	err := wst.server.Close()
	wst.wg.Wait()
	return err
}
