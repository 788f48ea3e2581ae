package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
)

// ErrPortInUse is returned by Start when the configured port is already bound.
// There is no retry and no fallback port.
var ErrPortInUse = errors.New("port already in use")

// Server serves the frontend's static files, and optionally the F1 API proxy, until shut down.
type Server struct {
	config *common.Config
	logger arbor.ILogger
	proxy  http.Handler
	router *http.ServeMux
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New creates the server. proxy may be nil, in which case /api/f1/ is not served.
func New(config *common.Config, logger arbor.ILogger, proxy http.Handler) *Server {
	s := &Server{
		config: config,
		logger: logger,
		proxy:  proxy,
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start binds the listening socket with address reuse. Port 0 binds an ephemeral port.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))

	listener, err := listen(addr)
	if err != nil {
		if isAddrInUse(err) {
			return fmt.Errorf("%w: %s", ErrPortInUse, addr)
		}
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info().
		Str("address", listener.Addr().String()).
		Str("public_dir", s.config.Server.PublicDir).
		Bool("proxy", s.proxy != nil).
		Msg("HTTP server listening")
	return nil
}

// Serve blocks serving requests until Shutdown. Start must have succeeded.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("server not started")
	}

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// URL returns the base URL using the bound port.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	port := s.config.Server.Port
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
	}
	return "http://" + net.JoinHostPort(s.config.Server.Host, strconv.Itoa(port))
}

// Handler exposes the full middleware chain, for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
