package command

import (
	"net"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/camlink/camlink-go/internal/server/certmint"
)

type certView struct {
	Subject     string    `json:"subject" yaml:"subject"`
	Serial      string    `json:"serial" yaml:"serial"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	DNSNames    []string  `json:"dns_names" yaml:"dns_names"`
	IPs         []string  `json:"ip_addresses" yaml:"ip_addresses"`
	NotBefore   time.Time `json:"not_before" yaml:"not_before"`
	NotAfter    time.Time `json:"not_after" yaml:"not_after"`
	KeyAlgo     string    `json:"key_algorithm" yaml:"key_algorithm"`
	CertPEM     string    `json:"certificate_pem,omitempty" yaml:"certificate_pem,omitempty" table:"-"`
}

// CertCommand mints an identity the same way the server does and prints
// its properties.
func CertCommand() *cli.Command {
	return &cli.Command{
		Name:  "cert",
		Usage: "Mint a self-signed identity and show its properties",
		Description: "Every server start mints a new certificate, so the fingerprint " +
			"shown here will differ from a running server's. Use it to check " +
			"what phones will be asked to accept.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pem",
				Usage: "Include the certificate PEM (json and yaml output)",
			},
		},
		Action: showCert,
	}
}

func showCert(c *cli.Context) error {
	if err := certmint.InstallDefaultProvider(); err != nil {
		return err
	}
	id, err := certmint.Mint()
	if err != nil {
		return err
	}
	view, err := describeIdentity(id)
	if err != nil {
		return err
	}
	if c.Bool("pem") {
		view.CertPEM = id.CertPEM
	}
	return render(c, view)
}

func describeIdentity(id *certmint.Identity) (certView, error) {
	leaf, err := id.Leaf()
	if err != nil {
		return certView{}, err
	}
	fp, err := id.Fingerprint()
	if err != nil {
		return certView{}, err
	}
	return certView{
		Subject:     leaf.Subject.CommonName,
		Serial:      leaf.SerialNumber.Text(16),
		Fingerprint: fp,
		DNSNames:    leaf.DNSNames,
		IPs:         ipStrings(leaf.IPAddresses),
		NotBefore:   leaf.NotBefore.UTC(),
		NotAfter:    leaf.NotAfter.UTC(),
		KeyAlgo:     leaf.PublicKeyAlgorithm.String(),
	}, nil
}

func ipStrings(ips []net.IP) []string {
	out := make([]string, len(ips))
	for i, ip := range ips {
		out[i] = ip.String()
	}
	return out
}
