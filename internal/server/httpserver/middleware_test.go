package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// TestRequestID tests the RequestID middleware.
func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		if _, ok := r.Context().Value(ContextKeyStartTime).(time.Time); !ok {
			t.Error("expected start time in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates request ID when not provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		requestID := rec.Header().Get(HeaderRequestID)
		if len(requestID) != 36 {
			t.Errorf("expected a UUID, got %q", requestID)
		}
		if seen != requestID {
			t.Errorf("context ID %q != header ID %q", seen, requestID)
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderRequestID, "existing-id-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(HeaderRequestID); got != "existing-id-123" {
			t.Errorf("expected 'existing-id-123', got %s", got)
		}
	})

	t.Run("replaces malformed request ID", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 65), "has space", "tab\tid"} {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(HeaderRequestID, bad)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get(HeaderRequestID); got == bad {
				t.Errorf("malformed ID %q was kept", bad)
			}
		}
	})
}

// TestChain tests middleware chaining.
func TestChain(t *testing.T) {
	var order []int
	step := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, 4)
			w.WriteHeader(http.StatusOK)
		}),
		step(1), step(2), step(3),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	expected := []int{1, 2, 3, 4}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d", len(expected), len(order))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("expected order[%d] = %d, got %d", i, v, order[i])
		}
	}
}

// TestRecover tests the Recover middleware.
func TestRecover(t *testing.T) {
	log, buf := newTestLogger()

	t.Run("recovers from panic", func(t *testing.T) {
		handler := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("test panic")
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if got := rec.Header().Get("X-Error-Code"); got != domain.ErrInternal.Code {
			t.Errorf("expected error code %s, got %s", domain.ErrInternal.Code, got)
		}
		if !strings.Contains(buf.String(), "panic recovered") {
			t.Errorf("expected panic to be logged, got %q", buf.String())
		}
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		handler := Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
	})

	t.Run("re-panics on ErrAbortHandler", func(t *testing.T) {
		handler := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		defer func() {
			if rec := recover(); rec != http.ErrAbortHandler {
				t.Errorf("expected ErrAbortHandler to propagate, got %v", rec)
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	})
}

// TestAudit tests the Audit middleware.
func TestAudit(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
		wantLvl string
	}{
		{"success", http.StatusOK, "request completed", "level=INFO"},
		{"client error", http.StatusNotFound, "request completed with client error", "level=WARN"},
		{"server error", http.StatusInternalServerError, "request completed with error", "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newTestLogger()
			reg := metric.NewRegistry()

			mux := http.NewServeMux()
			mux.HandleFunc("/thing", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			handler := Chain(mux, RequestID(), Audit(log, reg))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/thing", nil))

			out := buf.String()
			if !strings.Contains(out, tt.wantMsg) || !strings.Contains(out, tt.wantLvl) {
				t.Errorf("expected %s %q in log, got %q", tt.wantLvl, tt.wantMsg, out)
			}
			if !strings.Contains(out, "request_id="+rec.Header().Get(HeaderRequestID)) {
				t.Errorf("expected request id in log, got %q", out)
			}

			got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("/thing", strconv.Itoa(tt.status)))
			if got != 1 {
				t.Errorf("requests_total{/thing,%d} = %v, want 1", tt.status, got)
			}
		})
	}

	t.Run("unmatched route label", func(t *testing.T) {
		log, _ := newTestLogger()
		reg := metric.NewRegistry()
		handler := Audit(log, reg)(http.NewServeMux())

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))

		if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("unmatched", "404")); got != 1 {
			t.Errorf("unmatched 404 count = %v, want 1", got)
		}
	})

	t.Run("nil metrics", func(t *testing.T) {
		log, _ := newTestLogger()
		handler := Audit(log, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	})
}

// TestResponseWriter tests the status recording writer.
func TestResponseWriter(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusTeapot)

		if rw.statusCode != http.StatusCreated {
			t.Errorf("expected first status 201 to stick, got %d", rw.statusCode)
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

		rw.Write([]byte("hi"))

		if rw.statusCode != http.StatusOK || !rw.wroteHeader {
			t.Errorf("expected implicit 200, got %d", rw.statusCode)
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec}
		if rw.Unwrap() != rec {
			t.Error("Unwrap did not return the wrapped writer")
		}
	})

	t.Run("hijack unsupported", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
		if _, _, err := rw.Hijack(); err == nil {
			t.Error("expected error from recorder without Hijacker")
		}
	})
}

func TestAudit_WebSocketUpgrade(t *testing.T) {
	log, _ := newTestLogger()
	reg := metric.NewRegistry()

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	})
	srv := httptest.NewServer(Chain(mux, RequestID(), Audit(log, reg)))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("/ws", "101")) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expected upgraded request to be recorded as 101")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.168.1.7:52000", "192.168.1.7"},
		{"[fe80::1]:443", "fe80::1"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tt.remote
		req.Header.Set("X-Forwarded-For", "10.9.9.9")
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
