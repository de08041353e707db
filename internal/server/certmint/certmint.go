package certmint

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/infra/tlsroots"
)

// Subject names placed in every minted certificate.
var (
	DNSNames    = []string{"localhost"}
	IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1), net.IPv4zero}
)

const (
	commonName = "camlink self-signed"
	validity   = 365 * 24 * time.Hour
	// Backdated to tolerate phone clocks running slightly behind.
	clockSkew = time.Hour
)

// randReader is replaced in tests.
var randReader io.Reader = rand.Reader

// Identity is a PEM encoded certificate and private key pair.
type Identity struct {
	CertPEM string
	KeyPEM  string
}

// Mint creates a fresh self-signed identity.
func Mint() (*Identity, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), randReader)
	if err != nil {
		return nil, domain.ErrCertGenerationFailed.WithDetails("generate key").WithCause(err)
	}

	serial, err := rand.Int(randReader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, domain.ErrCertGenerationFailed.WithDetails("serial number").WithCause(err)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    now.Add(-clockSkew),
		NotAfter:     now.Add(validity),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     DNSNames,
		IPAddresses:  IPAddresses,
	}

	der, err := x509.CreateCertificate(randReader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, domain.ErrCertGenerationFailed.WithDetails("sign certificate").WithCause(err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, domain.ErrCertGenerationFailed.WithDetails("encode key").WithCause(err)
	}

	return &Identity{
		CertPEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		KeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})),
	}, nil
}

// TLSConfig builds the server configuration for the identity. HTTP/1.1 is
// the only offered protocol since WebSocket upgrades need it.
func (id *Identity) TLSConfig() (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(id.CertPEM), []byte(id.KeyPEM))
	if err != nil {
		return nil, domain.ErrTLSConfigFailed.WithCause(err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"http/1.1"},
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Leaf parses the certificate.
func (id *Identity) Leaf() (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(id.CertPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("certmint: no certificate in identity")
	}
	return x509.ParseCertificate(block.Bytes)
}

// Fingerprint returns the SHA-256 fingerprint of the certificate in the
// colon separated form browsers show.
func (id *Identity) Fingerprint() (string, error) {
	leaf, err := id.Leaf()
	if err != nil {
		return "", err
	}
	return tlsroots.Fingerprint(leaf.Raw), nil
}
