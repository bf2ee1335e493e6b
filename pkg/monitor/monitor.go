// Package monitor provides a WebSocket progress broadcaster so a frontend
// can chart a welding run live. The welder core stays callback-only; the
// monitor adapts its broadcast into a progress callback.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arcwelder-go/pkg/log"
	"arcwelder-go/pkg/welder"
)

// clientSendBuffer bounds the per-client frame queue. A client that cannot
// keep up is dropped rather than stalling the run.
const clientSendBuffer = 16

// Server broadcasts progress snapshots as JSON frames to connected WebSocket
// clients.
type Server struct {
	addr   string
	logger *log.Logger

	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a monitor server listening on addr (e.g. ":8910").
func New(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	return &Server{
		addr:   addr,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress", s.handleProgress)
	return mux
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	s.logger.Info("progress monitor listening on %s", s.addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("monitor server: %v", err)
		}
	}()
}

// Stop disconnects all clients and stops serving.
func (s *Server) Stop() {
	s.mu.Lock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// handleProgress upgrades the connection and streams progress frames. The
// most recent snapshot is sent immediately so late joiners see state.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	s.mu.Lock()
	if s.latest != nil {
		c.send <- s.latest
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
	go s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			break
		}
	}
	c.conn.Close()
}

// readLoop drains client messages; incoming frames carry no meaning, but the
// read pump notices disconnects.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(c)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Publish broadcasts one progress snapshot. Clients whose queue is full are
// dropped; the welding run never blocks on a slow consumer.
func (s *Server) Publish(p welder.Progress) {
	frame, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn("marshal progress: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = frame
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			delete(s.clients, c)
			close(c.send)
		}
	}
}

// Callback wraps next into a progress callback that also broadcasts every
// snapshot. next may be nil.
func (s *Server) Callback(next welder.Callback) welder.Callback {
	return func(p welder.Progress) bool {
		s.Publish(p)
		if next != nil {
			return next(p)
		}
		return true
	}
}
