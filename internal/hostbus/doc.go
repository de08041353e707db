// Package hostbus models the desktop host's event bus and command surface.
//
// The streaming server only ever needs Emit, so components depend on the
// one-method Bus interface. The package ships the implementations used by
// the standalone binary and tests:
//
//   - LogBus: writes each event as a structured log line
//   - Hub: in-process pub/sub with bounded, non-blocking subscribers
//   - Multi: fan-out to several buses
//   - BusFunc: adapter for plain functions
//
// Commands is the request/response half: named handlers the host UI can
// invoke, such as get_stream_url.
package hostbus
