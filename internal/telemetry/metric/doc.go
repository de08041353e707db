// Package metric provides Prometheus metrics for camlink.
//
//   - prometheus.go: the Registry, typed helpers and the HTTP handler
//   - collector.go: build info and uptime collector
//
// Metrics are served on a separate listener, never on the streaming port.
// All Registry helper methods accept a nil receiver so components can run
// without metrics.
package metric
