// Package monitor streams the progress of a suite run to browsers:
// a JSON dashboard, a WebSocket feed and a Server-Sent Events feed
// of every test event.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/logging"
)

const (
	writeWait   = 10 * time.Second
	clientQueue = 32
)

// Message is one frame sent to stream clients.
type Message struct {
	Type string `json:"type"` // dashboard or event
	Data any    `json:"data"`
}

// Server serves the dashboard and streams events to its clients.
type Server struct {
	mu        sync.RWMutex
	collector *EventCollector
	dashboard *DashboardData
	clients   map[chan []byte]struct{}
	addr      string
	router    *mux.Router
	upgrader  websocket.Upgrader
	server    *http.Server
	logger    logging.Logger
}

// NewServer creates a monitor server. Events emitted on collector
// from now on update dashboard and reach every connected client.
func NewServer(addr string, collector *EventCollector, dashboard *DashboardData, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	s := &Server{
		addr:      addr,
		collector: collector,
		dashboard: dashboard,
		clients:   make(map[chan []byte]struct{}),
		router:    mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}

	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/events", s.handleSSE).Methods(http.MethodGet)
	s.router.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	collector.OnEvent(func(event TestEvent) {
		dashboard.UpdateFromEvent(event)
		data, err := json.Marshal(Message{Type: "event", Data: event})
		if err != nil {
			return
		}
		s.broadcast(data)
	})
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: writeWait,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info("monitor_started", logging.String("addr", s.addr))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return errors.Wrap(err, "monitor server")
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// ClientCount returns the number of connected stream clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) subscribe() chan []byte {
	ch := make(chan []byte, clientQueue)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

func (s *Server) snapshotMessage() ([]byte, error) {
	return json.Marshal(Message{Type: "dashboard", Data: s.dashboard.Snapshot()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket_upgrade_failed", logging.Err(err))
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// The read loop only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if data, err := s.snapshotMessage(); err == nil {
		if !s.write(conn, data) {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case data := <-ch:
			if !s.write(conn, data) {
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, data []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("websocket_write_failed", logging.Err(err))
		return false
	}
	return true
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	if data, err := json.Marshal(s.dashboard.Snapshot()); err == nil {
		fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", data)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			fmt.Fprintf(w, "event: test\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.dashboard.Snapshot())
}

func (s *Server) broadcast(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.clients {
		select {
		case ch <- data:
		default:
			// Client too slow, skip
		}
	}
}
