package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/pkg/models"
)

// Server owns the unix socket and applies every incoming mutation through
// the in-process store facade, so exactly one writer is active while the
// daemon runs.
type Server struct {
	store    *store.Store
	logger   *logrus.Entry
	listener net.Listener
	conns    sync.WaitGroup
	closed   chan struct{}
}

// NewServer creates a Server backed by the given store.
func NewServer(st *store.Store, logger *logrus.Entry) *Server {
	return &Server{
		store:  st,
		logger: logger,
		closed: make(chan struct{}),
	}
}

// ListenAndServe binds the socket and serves requests until Shutdown. A
// stale socket file left by a crashed instance is removed before binding.
func (s *Server) ListenAndServe(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener
	s.logger.WithField("socket", socketPath).Info("daemon listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.WithError(err).Warn("accept failed")
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

// Shutdown stops accepting, waits for in-flight requests, flushes any
// pending write and removes the socket file.
func (s *Server) Shutdown(ctx context.Context, socketPath string) error {
	close(s.closed)
	if s.listener != nil {
		_ = s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("shutdown timed out waiting for connections")
	}

	s.store.Flush()
	_ = os.Remove(socketPath)
	s.logger.Info("daemon stopped")
	return nil
}

// handleConn serves newline-delimited JSON requests on one connection.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		resp := Response{OK: true}
		if err := json.Unmarshal(line, &req); err != nil {
			resp = Response{OK: false, Error: fmt.Sprintf("malformed request: %v", err)}
		} else if err := s.dispatch(req); err != nil {
			resp = Response{OK: false, Error: err.Error()}
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return
		}
		data = append(data, '\n')
		if _, err := writer.Write(data); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

// dispatch applies one request to the store and schedules persistence.
func (s *Server) dispatch(req Request) error {
	switch req.Type {
	case RequestHookEvent:
		var ev models.HookEvent
		if err := json.Unmarshal(req.Payload, &ev); err != nil {
			return fmt.Errorf("malformed hook event payload: %w", err)
		}
		s.store.UpdateSession(ev)
	case RequestClearSessions:
		s.store.ClearSessions()
	case RequestClearAll:
		s.store.ClearAll()
	case RequestClearProjects:
		s.store.ClearProjects()
	default:
		return fmt.Errorf("unknown request type %q", req.Type)
	}
	return nil
}
