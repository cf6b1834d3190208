// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Messages queued for broadcast before Send starts dropping.
	broadcastQueue = 256
	writeTimeout   = 2 * time.Second
)

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("transport closed")

// WebSocketTransport broadcasts every message as JSON to all clients
// connected on /ws. Send never blocks; when the queue is full the message is
// dropped.
type WebSocketTransport struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}

	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	dropped   uint64
}

// NewWebSocketTransport creates a transport for addr and starts its
// broadcast loop. Call Start to listen, or mount Handler on another server.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan any, broadcastQueue),
		done:      make(chan struct{}),
	}

	wst.wg.Add(1)
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
// Listen errors are returned; later serve errors are logged.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return err
	}
	wst.server = &http.Server{Handler: wst.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Infof("WebSocket server listening on %s", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("WebSocket server error: %v", err)
		}
	}()
	return nil
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = struct{}{}
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	logger.Infof("WebSocket client connected from %s, total: %d", conn.RemoteAddr(), total)

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		logger.Infof("WebSocket client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteJSON(data); err != nil {
					logger.Warnf("WebSocket send to %s failed: %v", client.RemoteAddr(), err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Send queues data for broadcast.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return ErrTransportClosed
	default:
	}

	select {
	case wst.broadcast <- data:
	default:
		wst.clientsMu.Lock()
		wst.dropped++
		dropped := wst.dropped
		wst.clientsMu.Unlock()
		logger.Debugf("WebSocket queue full, dropped %d messages so far", dropped)
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		logger.Infof("Closing WebSocket transport")
		close(wst.done)
		wst.wg.Wait()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		clear(wst.clients)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
