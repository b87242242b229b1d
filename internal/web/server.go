// Package web serves the companion mobile view: a JSON snapshot endpoint
// and a websocket that pushes a fresh snapshot whenever the store changes.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/internal/store"
)

// Server exposes the session store over HTTP and websocket.
type Server struct {
	store    *store.Store
	logger   *logrus.Entry
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer creates a web server over the given store.
func NewServer(st *store.Store, logger *logrus.Entry) *Server {
	return &Server{
		store:  st,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The view is served on localhost / trusted LAN only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe serves until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("addr", addr).Info("web view listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.store.Data())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Send the current snapshot immediately so the client has data before
	// the first store change.
	s.send(conn)

	// Reads are only serviced to detect close.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes a fresh snapshot to every connected client. Wire it to
// a store-file watcher callback.
func (s *Server) Broadcast() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		s.send(c)
	}
}

func (s *Server) send(conn *websocket.Conn) {
	data, err := json.Marshal(s.store.Data())
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.drop(conn)
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}
