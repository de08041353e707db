package certmint

import (
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	installOnce sync.Once
	installErr  error
	installed   atomic.Pointer[tlsDefaults]
)

type tlsDefaults struct {
	cipherSuites     []uint16
	curvePreferences []tls.CurveID
}

// InstallDefaultProvider performs the process-wide TLS setup: it checks
// that the system entropy source works and fixes the cipher suites and
// curves every server config will use. Only the first call does work;
// later calls return its result.
func InstallDefaultProvider() error {
	installOnce.Do(func() {
		probe := make([]byte, 32)
		if _, err := io.ReadFull(randReader, probe); err != nil {
			installErr = fmt.Errorf("certmint: entropy source unavailable: %w", err)
			return
		}
		installed.Store(&tlsDefaults{
			cipherSuites:     secureSuites(),
			curvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
		})
	})
	return installErr
}

// Installed reports whether InstallDefaultProvider has succeeded.
func Installed() bool {
	return installed.Load() != nil
}

// secureSuites lists the forward-secret suites for TLS 1.2. TLS 1.3 suites are
// not configurable and always enabled.
func secureSuites() []uint16 {
	var ids []uint16
	for _, s := range tls.CipherSuites() {
		tls12 := false
		for _, v := range s.SupportedVersions {
			if v == tls.VersionTLS12 {
				tls12 = true
			}
		}
		if tls12 && strings.Contains(s.Name, "_ECDHE_") {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func applyDefaults(cfg *tls.Config) {
	d := installed.Load()
	if d == nil {
		return
	}
	cfg.CipherSuites = append([]uint16(nil), d.cipherSuites...)
	cfg.CurvePreferences = append([]tls.CurveID(nil), d.curvePreferences...)
}
