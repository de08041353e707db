// Package output provides output formatting for camlink-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: key/value table rendering
//   - json.go, yaml.go: machine-readable output
//   - progress.go: live frame counter for the send command
//   - spinner.go: animation while a connection is being set up
package output
