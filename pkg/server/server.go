// Package server implements pingboardd, the reference backend that holds the
// authoritative host collection. It serves the full snapshot, accepts
// full-overwrite saves from dashboard clients and persists them to a JSON
// host file.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/kylerisse/pingboard/pkg/host"
	"github.com/kylerisse/pingboard/pkg/hostfile"
)

// NameResolver finds a display name for an address.
type NameResolver interface {
	LookupName(ctx context.Context, address string) (string, error)
}

// Server owns the host collection and its HTTP API.
type Server struct {
	file            *hostfile.File
	token           string
	listenAddr      string
	historyWindow   int
	resolver        NameResolver
	resolverTimeout time.Duration
	limiter         *rate.Limiter
	logger          *logrus.Logger

	mu    sync.RWMutex
	hosts []host.Host

	httpServer *http.Server
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithListenAddr sets the HTTP listen address.
func WithListenAddr(addr string) Option {
	return func(s *Server) {
		s.listenAddr = addr
	}
}

// WithHistoryWindow caps each host's saved history to the newest n samples.
// Zero keeps everything.
func WithHistoryWindow(n int) Option {
	return func(s *Server) {
		s.historyWindow = n
	}
}

// WithResolver enables naming of hosts saved without a name.
func WithResolver(r NameResolver, timeout time.Duration) Option {
	return func(s *Server) {
		s.resolver = r
		s.resolverTimeout = timeout
	}
}

// WithSaveLimit rate limits POST /save.
func WithSaveLimit(r rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// NewServer initializes a server with the hosts stored in file.
func NewServer(file *hostfile.File, token string, logger *logrus.Logger, opts ...Option) (*Server, error) {
	if token == "" {
		return nil, fmt.Errorf("server: token must not be empty")
	}

	s := &Server{
		file:            file,
		token:           token,
		listenAddr:      ":1982",
		resolverTimeout: 2 * time.Second,
		limiter:         rate.NewLimiter(rate.Inf, 0),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	hosts, err := file.Load()
	if err != nil {
		return nil, err
	}
	s.hosts = hosts
	s.logger.Infof("Loaded %d host(s) from %s", len(hosts), file.Path())

	return s, nil
}

// Start binds the listen address and serves the API in a goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", s.listenAddr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		s.logger.Infof("Starting API server on %v...", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("API server stopped: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the API down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	s.logger.Info("API server stopped.")
	return err
}

// snapshot returns a deep copy of the current collection.
func (s *Server) snapshot() []host.Host {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return host.CloneAll(s.hosts)
}

// replace persists hosts and, once the file is written, swaps them in.
func (s *Server) replace(hosts []host.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Save(hosts); err != nil {
		return err
	}
	s.hosts = hosts
	return nil
}
