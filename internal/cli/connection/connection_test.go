package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
	"github.com/camlink/camlink-go/internal/infra/tlsroots"
	"github.com/camlink/camlink-go/internal/server/relay"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
)

func insecureConfig(t *testing.T) *tls.Config {
	t.Helper()
	cfg, err := tlsroots.Trust{}.ClientConfig()
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:9104", "http://localhost:9104"},
		{"https://192.168.1.42:4104/", "https://192.168.1.42:4104"},
		{"192.168.1.42:4104", "https://192.168.1.42:4104"},
	}
	for _, tt := range tests {
		if got := NewHTTPClient(tt.server, nil, "").BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestHTTPClient_GetAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.Header().Set("X-Error-Code", "CL-AUTH-4010")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != "camlink-cli/test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	var body struct {
		Status string `json:"status"`
	}

	c := NewHTTPClient(srv.URL, nil, "camlink-cli/test").WithToken("tok")
	resp, err := c.Get(ctx, "/healthz")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := ParseResponse(resp, &body); err != nil || body.Status != "ok" {
		t.Fatalf("ParseResponse() = %v, body %+v", err, body)
	}

	resp, err = NewHTTPClient(srv.URL, nil, "camlink-cli/test").Get(ctx, "/healthz")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	err = ParseResponse(resp, &body)
	if err == nil || !strings.Contains(err.Error(), "[CL-AUTH-4010] unauthorized") {
		t.Errorf("ParseResponse() error = %v", err)
	}
}

func TestHTTPClient_Probe(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Header().Set("X-Request-ID", "rid-1")
		w.Write([]byte("body{}"))
	}))
	defer srv.Close()

	cfg := insecureConfig(t)
	res, err := NewHTTPClient(srv.URL, cfg, "").Probe(context.Background(), "/style.css")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Status != 200 || res.ContentType != "text/css" || res.Bytes != 6 || res.RequestID != "rid-1" {
		t.Errorf("unexpected probe result %+v", res)
	}
}

func TestStreamURL(t *testing.T) {
	if got := StreamURL("192.168.1.42:4104", "/ws"); got != "wss://192.168.1.42:4104/ws" {
		t.Errorf("StreamURL() = %q", got)
	}
}

func TestProducer_SendsToRelay(t *testing.T) {
	rec := hostbus.NewRecorder()
	rl := relay.New(rec, relay.WithLogger(logger.Discard()))
	srv := httptest.NewTLSServer(rl)
	defer srv.Close()

	cfg := insecureConfig(t)
	wsURL := "wss" + strings.TrimPrefix(srv.URL, "https") + domain.WebSocketPath
	p, err := Dial(context.Background(), wsURL, cfg, "camlink-cli/test")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	for _, f := range []string{"data:image/jpeg;base64,AAAA", "data:image/jpeg;base64,BBBB"} {
		if err := p.Send(f); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := p.Send("late"); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("Send after Close = %v, want ErrProducerClosed", err)
	}

	ok := rec.WaitFor(3*time.Second, func(events []hostbus.Event) bool {
		return len(events) > 0 && events[len(events)-1].Name == domain.EventClientDisconnected
	})
	if !ok {
		t.Fatalf("events = %v", rec.Names())
	}
	if n := rec.Count(domain.EventCameraFrame); n != 2 {
		t.Errorf("camera-frame count = %d, want 2", n)
	}
}

func TestDial_Refused(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	defer srv.Close()
	cfg := insecureConfig(t)

	_, err := Dial(context.Background(), "wss"+strings.TrimPrefix(srv.URL, "https")+"/ws", cfg, "")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("Dial() error = %v, want status 404", err)
	}
}
