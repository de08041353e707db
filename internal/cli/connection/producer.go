package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// ErrProducerClosed is returned by Send after Close.
var ErrProducerClosed = errors.New("connection: producer closed")

// Producer is a WebSocket client that sends frames to the relay.
type Producer struct {
	conn *websocket.Conn
	url  string

	mu     sync.Mutex
	closed bool
}

// StreamURL builds the wss URL for host, which is host or host:port.
func StreamURL(host, path string) string {
	u := url.URL{Scheme: "wss", Host: host, Path: path}
	return u.String()
}

// Dial connects to the relay at wsURL.
func Dial(ctx context.Context, wsURL string, tlsConfig *tls.Config, userAgent string) (*Producer, error) {
	dialer := websocket.Dialer{
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	p := &Producer{conn: conn, url: wsURL}
	// The relay never sends application frames; reading keeps control
	// frames flowing and notices the server going away.
	go p.drain()
	return p, nil
}

func (p *Producer) drain() {
	for {
		if _, _, err := p.conn.NextReader(); err != nil {
			return
		}
	}
}

// URL returns the dialed URL.
func (p *Producer) URL() string {
	return p.url
}

// Send writes one text frame.
func (p *Producer) Send(frame string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrProducerClosed
	}
	p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Close sends a normal closure and closes the socket. It is safe to call
// more than once.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return p.conn.Close()
}
