// Package buildinfo exposes version information for the camlink binaries.
//
// Release builds inject values via ldflags:
//
//	go build -ldflags "-X github.com/camlink/camlink-go/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/camlink/camlink-go/internal/infra/buildinfo.Commit=abc123"
//
// Development builds fall back to the VCS stamp recorded by the Go toolchain.
package buildinfo
