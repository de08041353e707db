// Package main provides the entry point for camlink-server.
//
// The server mints a self-signed certificate, listens for phones on
// https://0.0.0.0:4104 and logs every host event: client-connected,
// camera-frame (summarized) and client-disconnected.
//
// Usage:
//
//	camlink-server [flags]
//	camlink-server --config /path/to/camlink.yaml --watch
//
// Environment variables prefixed with CAMLINK_ override file values, for
// example CAMLINK_LOG_LEVEL=debug or CAMLINK_METRICS_ENABLED=true.
package main
