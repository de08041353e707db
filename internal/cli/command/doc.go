// Package command provides CLI command definitions for camlink-cli.
//
// Commands:
//
//   - url: print the URL phones should open
//   - cert: mint a throwaway identity and show what the server presents
//   - send: stream JPEG files to a running endpoint like a phone does
//   - probe: fetch the web client routes over TLS
//   - health: query the metrics listener's /healthz
//   - version: print build information
//
// It uses urfave/cli/v2 for command parsing.
package command
