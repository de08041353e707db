package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/camlink/camlink-go/internal/server/static"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
)

func TestNewRouter_UncleanPaths(t *testing.T) {
	relayHit := false
	router := NewRouter(&RouterConfig{
		Static: static.New(),
		Relay: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			relayHit = true
			w.WriteHeader(http.StatusTeapot)
		}),
		Logger: logger.Discard(),
	})

	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusOK},
		{"/app.js", http.StatusOK},
		{"/style.css", http.StatusOK},
		{"/ws", http.StatusTeapot},
		{"/./app.js", http.StatusNotFound},
		{"//app.js", http.StatusNotFound},
		{"/web/../style.css", http.StatusNotFound},
		{"/./ws", http.StatusNotFound},
		{"/app.js/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			relayHit = false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if loc := rec.Header().Get("Location"); loc != "" {
				t.Errorf("Location = %q, want no redirect", loc)
			}
			if tt.want == http.StatusNotFound && relayHit {
				t.Error("relay reached for an unclean path")
			}
		})
	}
}
