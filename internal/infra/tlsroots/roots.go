package tlsroots

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrInvalidFingerprint is returned for a malformed SHA-256 fingerprint.
	ErrInvalidFingerprint = errors.New("tlsroots: invalid SHA-256 fingerprint")

	// ErrFingerprintMismatch is returned when the server's leaf does not match the pin.
	ErrFingerprintMismatch = errors.New("tlsroots: certificate fingerprint mismatch")
)

// Fingerprint returns the SHA-256 of a DER certificate as upper-case hex
// pairs separated by colons, the form browsers display.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	enc := strings.ToUpper(hex.EncodeToString(sum[:]))

	var b strings.Builder
	b.Grow(len(enc) + len(sum) - 1)
	for i := 0; i < len(enc); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(enc[i : i+2])
	}
	return b.String()
}

// ParseFingerprint accepts a SHA-256 fingerprint with or without colons,
// in any case, and returns the raw digest.
func ParseFingerprint(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != sha256.Size {
		return nil, ErrInvalidFingerprint
	}
	return raw, nil
}

// Pool manages a pool of trusted certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewEmptyPool creates a new empty certificate pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds certificates from a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	return p.AddCertPEM(data)
}

// AddCertPEM adds certificates from PEM-encoded data. Blocks of other
// types, such as private keys, are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var added int
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// Trust selects how a client verifies the server certificate.
// Fingerprint wins over CAFile; with neither set verification is skipped.
type Trust struct {
	Fingerprint string
	CAFile      string

	// ServerName used for CA file verification. The minted certificate
	// only names localhost and loopback addresses, so it defaults to
	// "localhost" when dialing a LAN address.
	ServerName string
}

// Mode names the verification mode, for logs.
func (t Trust) Mode() string {
	switch {
	case t.Fingerprint != "":
		return "fingerprint"
	case t.CAFile != "":
		return "ca-file"
	default:
		return "insecure"
	}
}

// ClientConfig builds the client TLS configuration for t.
func (t Trust) ClientConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	switch t.Mode() {
	case "fingerprint":
		want, err := ParseFingerprint(t.Fingerprint)
		if err != nil {
			return nil, err
		}
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = pinVerifier(want)
	case "ca-file":
		pool := NewEmptyPool()
		if err := pool.AddCertFile(t.CAFile); err != nil {
			return nil, err
		}
		cfg.RootCAs = pool.Pool()
		cfg.ServerName = t.ServerName
		if cfg.ServerName == "" {
			cfg.ServerName = "localhost"
		}
	default:
		cfg.InsecureSkipVerify = true
	}
	return cfg, nil
}

func pinVerifier(want []byte) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return ErrFingerprintMismatch
		}
		got := sha256.Sum256(rawCerts[0])
		if string(got[:]) != string(want) {
			return fmt.Errorf("%w: got %s", ErrFingerprintMismatch, Fingerprint(rawCerts[0]))
		}
		return nil
	}
}
