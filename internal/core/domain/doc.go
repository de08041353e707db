// Package domain defines the core domain model of camlink.
//
// The package has no IO dependencies. It contains:
//
//   - Stream constants: bind address, port and host bus event names
//   - SessionState: lifecycle of a single WebSocket producer session
//   - Errors: DomainError values with stable error codes
package domain
