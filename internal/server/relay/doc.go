// Package relay upgrades producer connections to WebSocket and forwards
// every text message to the host bus.
//
// Each session emits client-connected once the handshake succeeds, one
// camera-frame per text message in receive order, and client-disconnected
// exactly once when it ends. A failed handshake emits nothing. Binary
// messages are counted and discarded.
package relay
