// Package httpserver provides the HTTPS endpoint phones connect to.
//
// A single TLS listener on 0.0.0.0:4104 serves:
//
//   - Web client: /, /style.css, /app.js
//   - Frame relay: /ws (WebSocket upgrade)
//
// Everything else is 404. The certificate is minted in memory at start.
// An optional plain HTTP listener (MetricsServer) exposes /metrics and
// /healthz away from the streaming port.
package httpserver
