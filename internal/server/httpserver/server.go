package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
	"github.com/camlink/camlink-go/internal/server/certmint"
	"github.com/camlink/camlink-go/internal/server/relay"
	"github.com/camlink/camlink-go/internal/server/static"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

// Server is the HTTPS endpoint. It is started once and shut down once.
type Server struct {
	bus               hostbus.Bus
	port              int
	logger            *slog.Logger
	metrics           *metric.Registry
	readLimit         int64
	readHeaderTimeout time.Duration

	ready        chan struct{}
	shutdownDone chan struct{}

	mu         sync.Mutex
	started    bool
	closed     bool
	httpServer *http.Server
	relay      *relay.Relay
	identity   *certmint.Identity
	addr       net.Addr
}

// New creates a server that will listen on 0.0.0.0:port and emit session
// events to bus. A nil bus discards events.
func New(bus hostbus.Bus, port int, opts ...Option) *Server {
	if bus == nil {
		bus = hostbus.Discard
	}
	s := &Server{
		bus:               bus,
		port:              port,
		logger:            slog.Default(),
		readLimit:         relay.DefaultReadLimit,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		ready:             make(chan struct{}),
		shutdownDone:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start mints a certificate, binds the listener and serves until ctx is
// cancelled or Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.started {
		s.mu.Unlock()
		return domain.ErrServerClosed
	}
	s.started = true
	s.mu.Unlock()

	if err := certmint.InstallDefaultProvider(); err != nil {
		return fmt.Errorf("install tls provider: %w", err)
	}
	identity, err := certmint.Mint()
	if err != nil {
		return err
	}
	tlsConfig, err := identity.TLSConfig()
	if err != nil {
		return err
	}

	addr := domain.ListenAddr(s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return domain.ErrBindFailed.WithDetails(addr).WithCause(err)
	}
	tlsLn := tls.NewListener(ln, tlsConfig)

	rl := relay.New(s.bus, s.relayOptions()...)
	handler := NewRouter(&RouterConfig{
		Static:  static.New(),
		Relay:   rl,
		Logger:  s.logger,
		Metrics: s.metrics,
	})
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.readHeaderTimeout,
		// Failed handshakes from browsers rejecting the certificate are
		// routine; keep them out of the error log.
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		tlsLn.Close()
		return domain.ErrServerClosed
	}
	s.httpServer = srv
	s.relay = rl
	s.identity = identity
	s.addr = ln.Addr()
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("endpoint listening", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		if err := s.Shutdown(context.Background()); err != nil {
			s.logger.Warn("shutdown after context cancel", "error", err)
		}
	})
	defer stop()

	err = srv.Serve(tlsLn)
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	<-s.shutdownDone
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or nil before Ready.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Identity returns the certificate minted by Start, or nil before Ready.
func (s *Server) Identity() *certmint.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// ActiveSessions returns the number of live WebSocket sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	rl := s.relay
	s.mu.Unlock()
	if rl == nil {
		return 0
	}
	return rl.ActiveSessions()
}

// Shutdown stops accepting connections, closes every session and waits
// until each has emitted client-disconnected or ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv, rl := s.httpServer, s.relay
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	defer close(s.shutdownDone)

	// Hijacked WebSocket connections are not tracked by http.Server, so
	// Shutdown returns once plain requests drain; the relay closes the rest.
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := rl.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close sessions: %w", err))
	}
	return errors.Join(errs...)
}
