package domain

import "strconv"

const (
	// BindAddr is the address the streaming endpoint listens on.
	BindAddr = "0.0.0.0"

	// StreamPort is the port the endpoint binds and the port advertised
	// to LAN peers. It is not configurable.
	StreamPort = 4104

	// WebSocketPath is the upgrade path used by the web client.
	WebSocketPath = "/ws"
)

// Host bus event names.
const (
	EventClientConnected    = "client-connected"
	EventCameraFrame        = "camera-frame"
	EventClientDisconnected = "client-disconnected"
)

// CommandGetStreamURL is the host command returning the advertised URL.
const CommandGetStreamURL = "get_stream_url"

// ListenAddr returns the host:port the endpoint binds for port.
func ListenAddr(port int) string {
	return BindAddr + ":" + strconv.Itoa(port)
}

// SessionState is the lifecycle state of one producer session.
type SessionState int

const (
	// SessionUpgrading is the state before the handshake completes.
	SessionUpgrading SessionState = iota
	// SessionActive means the socket is open and frames are relayed.
	SessionActive
	// SessionClosed is terminal.
	SessionClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case SessionUpgrading:
		return "upgrading"
	case SessionActive:
		return "active"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Upgrading may go to Active or Closed, Active only to Closed.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	switch s {
	case SessionUpgrading:
		return next == SessionActive || next == SessionClosed
	case SessionActive:
		return next == SessionClosed
	default:
		return false
	}
}
