package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

const waitTimeout = 3 * time.Second

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T, opts ...Option) (*Relay, *hostbus.Recorder, *httptest.Server) {
	t.Helper()
	rec := hostbus.NewRecorder()
	r := New(rec, append([]Option{WithLogger(quietLogger())}, opts...)...)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return r, rec, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	resp.Body.Close()
	return conn
}

func closeClient(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}

func waitCount(t *testing.T, rec *hostbus.Recorder, event string, n int) {
	t.Helper()
	ok := rec.WaitFor(waitTimeout, func([]hostbus.Event) bool { return rec.Count(event) >= n })
	if !ok {
		t.Fatalf("timed out waiting for %d %s events, got %v", n, event, rec.Names())
	}
}

func TestRelay_ConnectDisconnect(t *testing.T) {
	_, rec, srv := newTestRelay(t)

	conn := dial(t, srv)
	waitCount(t, rec, domain.EventClientConnected, 1)
	closeClient(t, conn)
	waitCount(t, rec, domain.EventClientDisconnected, 1)

	names := rec.Names()
	want := []string{domain.EventClientConnected, domain.EventClientDisconnected}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", names, want)
	}
	for _, ev := range rec.Events() {
		if ev.Payload != nil {
			t.Errorf("%s payload = %v, want nil", ev.Name, ev.Payload)
		}
	}
}

func TestRelay_FramesInOrder(t *testing.T) {
	_, rec, srv := newTestRelay(t)

	conn := dial(t, srv)
	frames := []string{"data:image/jpeg;base64,AAA", "data:image/jpeg;base64,BBB", "data:image/jpeg;base64,CCC"}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}
	closeClient(t, conn)
	waitCount(t, rec, domain.EventClientDisconnected, 1)

	events := rec.Events()
	if len(events) != 5 {
		t.Fatalf("events = %v, want 5", rec.Names())
	}
	if events[0].Name != domain.EventClientConnected || events[4].Name != domain.EventClientDisconnected {
		t.Errorf("lifecycle events out of place: %v", rec.Names())
	}
	for i, f := range frames {
		ev := events[i+1]
		if ev.Name != domain.EventCameraFrame || ev.Payload != f {
			t.Errorf("event %d = %s %v, want camera-frame %q", i+1, ev.Name, ev.Payload, f)
		}
	}
}

func TestRelay_ArbitraryTextVerbatim(t *testing.T) {
	_, rec, srv := newTestRelay(t)

	conn := dial(t, srv)
	payloads := []string{"", "hello", "not a data url", "ünïcødé ✓"}
	for _, p := range payloads {
		conn.WriteMessage(websocket.TextMessage, []byte(p))
	}
	closeClient(t, conn)
	waitCount(t, rec, domain.EventClientDisconnected, 1)

	var got []any
	for _, ev := range rec.Events() {
		if ev.Name == domain.EventCameraFrame {
			got = append(got, ev.Payload)
		}
	}
	if len(got) != len(payloads) {
		t.Fatalf("frames = %v, want %v", got, payloads)
	}
	for i := range payloads {
		if got[i] != payloads[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], payloads[i])
		}
	}
}

func TestRelay_BinaryIgnored(t *testing.T) {
	m := metric.NewRegistry()
	_, rec, srv := newTestRelay(t, WithMetrics(m))

	conn := dial(t, srv)
	conn.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0xd8, 0xff})
	conn.WriteMessage(websocket.TextMessage, []byte("after"))
	closeClient(t, conn)
	waitCount(t, rec, domain.EventClientDisconnected, 1)

	if n := rec.Count(domain.EventCameraFrame); n != 1 {
		t.Errorf("camera-frame events = %d, want 1", n)
	}
	if got := testutil.ToFloat64(m.FramesDropped.WithLabelValues(metric.DropBinary)); got != 1 {
		t.Errorf("dropped{binary} = %v, want 1", got)
	}
}

func TestRelay_PingIgnored(t *testing.T) {
	_, rec, srv := newTestRelay(t)

	conn := dial(t, srv)
	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		pong <- struct{}{}
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteControl(websocket.PingMessage, []byte("hi"), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("WriteControl(ping) error = %v", err)
	}
	select {
	case <-pong:
	case <-time.After(waitTimeout):
		t.Fatal("no pong received")
	}
	closeClient(t, conn)
	waitCount(t, rec, domain.EventClientDisconnected, 1)

	if n := rec.Count(domain.EventCameraFrame); n != 0 {
		t.Errorf("camera-frame events = %d, want 0", n)
	}
}

func TestRelay_ManySessions(t *testing.T) {
	m := metric.NewRegistry()
	r, rec, srv := newTestRelay(t, WithMetrics(m))

	const sessions, perSession = 4, 25
	var wg sync.WaitGroup
	for s := 0; s < sessions; s++ {
		conn := dial(t, srv)
		wg.Add(1)
		go func(s int, conn *websocket.Conn) {
			defer wg.Done()
			for i := 0; i < perSession; i++ {
				conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("s%d-f%d", s, i)))
			}
			closeClient(t, conn)
		}(s, conn)
	}
	wg.Wait()
	waitCount(t, rec, domain.EventClientDisconnected, sessions)

	if n := rec.Count(domain.EventClientConnected); n != sessions {
		t.Errorf("client-connected = %d, want %d", n, sessions)
	}
	if n := rec.Count(domain.EventCameraFrame); n != sessions*perSession {
		t.Errorf("camera-frame = %d, want %d", n, sessions*perSession)
	}

	// Per-session order is preserved even when sessions interleave.
	next := make(map[string]int)
	for _, ev := range rec.Events() {
		if ev.Name != domain.EventCameraFrame {
			continue
		}
		var s, i int
		fmt.Sscanf(ev.Payload.(string), "s%d-f%d", &s, &i)
		key := fmt.Sprint(s)
		if i != next[key] {
			t.Fatalf("session %d frame %d arrived, want %d", s, i, next[key])
		}
		next[key]++
	}

	if r.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", r.ActiveSessions())
	}
	if got := testutil.ToFloat64(m.SessionsTotal); got != sessions {
		t.Errorf("sessions_total = %v, want %d", got, sessions)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("sessions_active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.FramesTotal); got != sessions*perSession {
		t.Errorf("frames_total = %v, want %d", got, sessions*perSession)
	}
}

func TestRelay_PlainGetRejected(t *testing.T) {
	_, rec, srv := newTestRelay(t)

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	time.Sleep(50 * time.Millisecond)
	if len(rec.Events()) != 0 {
		t.Errorf("events = %v, want none after failed upgrade", rec.Names())
	}
}

func TestRelay_MethodNotAllowed(t *testing.T) {
	_, rec, srv := newTestRelay(t)

	resp, err := http.Post(srv.URL+"/ws", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
	if resp.Header.Get("Allow") != http.MethodGet {
		t.Errorf("Allow = %q, want GET", resp.Header.Get("Allow"))
	}
	if len(rec.Events()) != 0 {
		t.Errorf("events = %v, want none", rec.Names())
	}
}

func TestRelay_EmitErrorSwallowed(t *testing.T) {
	m := metric.NewRegistry()
	_, rec, srv := newTestRelay(t, WithMetrics(m))
	rec.FailWith(domain.ErrEmitFailed)

	conn := dial(t, srv)
	conn.WriteMessage(websocket.TextMessage, []byte("a"))
	conn.WriteMessage(websocket.TextMessage, []byte("b"))
	closeClient(t, conn)
	waitCount(t, rec, domain.EventClientDisconnected, 1)

	if n := rec.Count(domain.EventCameraFrame); n != 2 {
		t.Errorf("camera-frame attempts = %d, want 2", n)
	}
	if got := testutil.ToFloat64(m.FramesDropped.WithLabelValues(metric.DropEmitError)); got != 2 {
		t.Errorf("dropped{emit_error} = %v, want 2", got)
	}
}

func TestRelay_ReadLimit(t *testing.T) {
	_, rec, srv := newTestRelay(t, WithReadLimit(16))

	conn := dial(t, srv)
	conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64)))
	waitCount(t, rec, domain.EventClientDisconnected, 1)
	conn.Close()

	if n := rec.Count(domain.EventCameraFrame); n != 0 {
		t.Errorf("camera-frame = %d, want 0 for oversized message", n)
	}
}

func TestRelay_Close(t *testing.T) {
	r, rec, srv := newTestRelay(t)

	conns := []*websocket.Conn{dial(t, srv), dial(t, srv)}
	waitCount(t, rec, domain.EventClientConnected, 2)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := rec.Count(domain.EventClientDisconnected); n != 2 {
		t.Errorf("client-disconnected = %d, want 2 after Close returns", n)
	}
	if r.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", r.ActiveSessions())
	}

	for _, c := range conns {
		c.SetReadDeadline(time.Now().Add(waitTimeout))
		_, _, err := c.ReadMessage()
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("client read error = %v, want going-away close", err)
		}
		c.Close()
	}

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status after Close = %d, want 503", resp.StatusCode)
	}
}

func TestRelay_CloseContextExpired(t *testing.T) {
	block := make(chan struct{})
	bus := hostbus.BusFunc(func(event string, _ any) error {
		if event == domain.EventClientDisconnected {
			<-block
		}
		return nil
	})
	r := New(bus, WithLogger(quietLogger()))
	srv := httptest.NewServer(r)
	defer srv.Close()
	defer close(block)

	conn := dial(t, srv)
	defer conn.Close()
	deadline := time.Now().Add(waitTimeout)
	for r.ActiveSessions() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Close(ctx); err != context.DeadlineExceeded {
		t.Errorf("Close() error = %v, want deadline exceeded", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(nil)
	if r.readLimit != DefaultReadLimit {
		t.Errorf("readLimit = %d, want %d", r.readLimit, DefaultReadLimit)
	}
	if r.bus == nil {
		t.Error("nil bus should be replaced")
	}

	r = New(nil, WithReadLimit(-1))
	if r.readLimit != DefaultReadLimit {
		t.Errorf("negative read limit should keep default, got %d", r.readLimit)
	}
}

type lockedBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestRelay_LogsSessionState(t *testing.T) {
	var buf lockedBuffer
	_, rec, srv := newTestRelay(t, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	conn := dial(t, srv)
	waitCount(t, rec, domain.EventClientConnected, 1)
	closeClient(t, conn)

	deadline := time.Now().Add(waitTimeout)
	for !strings.Contains(buf.String(), "producer disconnected") {
		if time.Now().After(deadline) {
			t.Fatalf("no disconnect log line:\n%s", buf.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "producer connected") && !strings.Contains(line, "state=active"):
			t.Errorf("connect line missing state=active: %s", line)
		case strings.Contains(line, "producer disconnected") && !strings.Contains(line, "state=closed"):
			t.Errorf("disconnect line missing state=closed: %s", line)
		}
	}
}

func TestSession_Transitions(t *testing.T) {
	s := newSession("01TEST", "127.0.0.1:1")
	if s.State() != domain.SessionUpgrading {
		t.Fatalf("initial State() = %s, want upgrading", s.State())
	}
	if !s.transition(domain.SessionActive) {
		t.Fatal("upgrading -> active rejected")
	}
	if s.transition(domain.SessionUpgrading) {
		t.Error("active -> upgrading accepted")
	}
	if !s.transition(domain.SessionClosed) {
		t.Fatal("active -> closed rejected")
	}
	if s.transition(domain.SessionClosed) {
		t.Error("closed -> closed accepted")
	}
	if s.State() != domain.SessionClosed {
		t.Errorf("final State() = %s, want closed", s.State())
	}
}
