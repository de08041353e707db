package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

const closeWriteTimeout = time.Second

// Relay is the WebSocket endpoint handler.
type Relay struct {
	bus       hostbus.Bus
	logger    *slog.Logger
	metrics   *metric.Registry
	readLimit int64
	upgrader  websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
	closing  bool
	wg       sync.WaitGroup
}

// New creates a Relay emitting to bus. A nil bus discards events.
func New(bus hostbus.Bus, opts ...Option) *Relay {
	if bus == nil {
		bus = hostbus.Discard
	}
	r := &Relay{
		bus:       bus,
		logger:    slog.Default(),
		readLimit: DefaultReadLimit,
		sessions:  make(map[string]*Session),
		upgrader: websocket.Upgrader{
			// Phones load the page from this same server, but the LAN
			// address they use is not known in advance.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP upgrades the request and runs the session until it ends.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	r.mu.Lock()
	closing := r.closing
	r.mu.Unlock()
	if closing {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	sess := newSession(ulid.Make().String(), req.RemoteAddr)
	log := r.logger.With("session_id", sess.ID, "remote", sess.Remote)
	if rid := logger.RequestIDFromContext(req.Context()); rid != "" {
		log = log.With("request_id", rid)
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		sess.transition(domain.SessionClosed)
		log.Debug("websocket upgrade rejected", "error", domain.ErrUpgradeFailed.WithCause(err))
		return
	}
	conn.SetReadLimit(r.readLimit)
	sess.conn = conn

	if !r.register(sess) {
		sess.transition(domain.SessionClosed)
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer r.wg.Done()

	r.run(sess, log)
}

// register records an upgraded session unless the relay is closing.
func (r *Relay) register(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return false
	}
	r.sessions[s.ID] = s
	r.wg.Add(1)
	return true
}

func (r *Relay) unregister(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID)
	r.mu.Unlock()
}

// run pumps one Active session. Everything it emits happens on this
// goroutine, which keeps the session's events ordered.
func (r *Relay) run(s *Session, log *slog.Logger) {
	s.transition(domain.SessionActive)
	r.metrics.SessionOpened()
	r.emit(log, domain.EventClientConnected, nil)
	log.Info("producer connected", "state", s.State())

	defer func() {
		s.conn.Close()
		s.transition(domain.SessionClosed)
		r.unregister(s)
		r.metrics.SessionClosed()
		r.emit(log, domain.EventClientDisconnected, nil)

		frames, bytes := s.Stats()
		log.Info("producer disconnected",
			"state", s.State(),
			"frames", frames,
			"bytes", bytes,
			"duration", time.Since(s.Since).Round(time.Millisecond),
		)
	}()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			r.logReadEnd(log, err)
			return
		}

		if mt != websocket.TextMessage {
			r.metrics.FrameDropped(metric.DropBinary)
			log.Debug("binary message ignored", "size", len(data))
			continue
		}

		s.countFrame(len(data))
		if r.emit(log, domain.EventCameraFrame, string(data)) {
			r.metrics.FrameRelayed(len(data))
		} else {
			r.metrics.FrameDropped(metric.DropEmitError)
		}
	}
}

// emit forwards an event to the bus. Bus failures never end a session.
func (r *Relay) emit(log *slog.Logger, event string, payload any) bool {
	if err := r.bus.Emit(event, payload); err != nil {
		log.Debug("host bus emit failed", "event", event, "error", err)
		return false
	}
	return true
}

func (r *Relay) logReadEnd(log *slog.Logger, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Warn("message exceeds read limit, closing session", "limit", r.readLimit)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		log.Debug("session closed by peer", "reason", err)
	default:
		log.Debug("session read ended", "error", err)
	}
}

// ActiveSessions returns the number of sessions currently Active.
func (r *Relay) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops accepting sessions, sends a going-away close frame to every
// live session and waits until all of them have emitted
// client-disconnected, or ctx is done.
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		closeConn(s.conn, websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closeConn sends a close frame and closes the socket, which unblocks the
// session's read loop.
func closeConn(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(closeWriteTimeout))
	_ = conn.Close()
}
