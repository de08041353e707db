package connection

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	token     string
}

// NewHTTPClient creates a client for server. A bare host:port is treated
// as https. tlsConfig may be nil for plain HTTP targets.
func NewHTTPClient(server string, tlsConfig *tls.Config, userAgent string) *HTTPClient {
	baseURL := strings.TrimSuffix(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return &HTTPClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
	}
}

// WithToken sets a bearer token sent on every request.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	c.token = token
	return c
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// ParseResponse decodes a JSON body into target. Error statuses are
// reported with the server's X-Error-Code when present.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if code := resp.Header.Get("X-Error-Code"); code != "" {
			return fmt.Errorf("[%s] %s", code, msg)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// Probe fetches path and returns status, content type and body size.
// It is used to check that the endpoint serves the web client.
func (c *HTTPClient) Probe(ctx context.Context, path string) (ProbeResult, error) {
	start := time.Now()
	resp, err := c.Get(ctx, path)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("read body: %w", err)
	}
	res := ProbeResult{
		Path:        path,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Bytes:       n,
		Latency:     time.Since(start).Round(time.Millisecond).String(),
		RequestID:   resp.Header.Get("X-Request-ID"),
	}
	if resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		res.PeerSubject = resp.TLS.PeerCertificates[0].Subject.CommonName
	}
	return res, nil
}

// ProbeResult summarizes one probed route.
type ProbeResult struct {
	Path        string `json:"path" yaml:"path"`
	Status      int    `json:"status" yaml:"status"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
	Latency     string `json:"latency" yaml:"latency"`
	RequestID   string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	PeerSubject string `json:"peer_subject,omitempty" yaml:"peer_subject,omitempty"`
}
