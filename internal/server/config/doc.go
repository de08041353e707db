// Package config provides camlink-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: validation (sizes, addresses, log settings)
//   - sanitize.go: log sanitization (hide the metrics token)
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and CAMLINK_ environment variables. The streaming bind address and port
// are fixed and deliberately absent here.
package config
