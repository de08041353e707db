// Package connection provides the client side of camlink-cli.
//
//   - http.go: HTTPS client for probing the endpoint and the health route
//   - producer.go: WebSocket producer that streams frames like a phone does
//
// Both honor a tlsroots.Trust: a pinned SHA-256 fingerprint, a CA file, or
// no verification (the default, matching what a phone does after the user
// accepts the self-signed certificate).
package connection
