package command

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/camlink/camlink-go/internal/cli/connection"
	"github.com/camlink/camlink-go/internal/cli/output"
	"github.com/camlink/camlink-go/internal/infra/buildinfo"
	"github.com/camlink/camlink-go/internal/server/static"
)

// probeRow is one probed route compared with the asset this build embeds.
type probeRow struct {
	connection.ProbeResult `yaml:",inline"`
	MatchesBundle          bool `json:"matches_bundle" yaml:"matches_bundle"`
}

// ProbeCommand fetches the web client routes from an endpoint.
func ProbeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Fetch the web client routes over TLS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Endpoint host or host:port",
				Value: defaultHost,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall timeout",
				Value: 10 * time.Second,
			},
		},
		Action: probe,
	}
}

func probe(c *cli.Context) error {
	tlsConfig, err := ParseGlobalFlags(c).Trust.ClientConfig()
	if err != nil {
		return err
	}
	client := connection.NewHTTPClient(withDefaultPort(c.String("host")), tlsConfig, buildinfo.UserAgent(ProgramName))

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	assets := static.New().Assets()
	results := make([]probeRow, 0, len(assets))
	for _, a := range assets {
		res, err := client.Probe(ctx, a.Path)
		if err != nil {
			return fmt.Errorf("probe %s: %w", a.Path, err)
		}
		verbosef(c, "%s -> %d (%s)", a.Path, res.Status, res.Latency)
		results = append(results, probeRow{
			ProbeResult:   res,
			MatchesBundle: res.Status == http.StatusOK && res.ContentType == a.MIME && res.Bytes == int64(len(a.Body)),
		})
	}

	if ParseGlobalFlags(c).Output != "table" {
		return render(c, results)
	}
	tbl := &output.Table{Headers: []string{"PATH", "STATUS", "TYPE", "BYTES", "LATENCY", "BUNDLE"}}
	for _, r := range results {
		match := "differs"
		if r.MatchesBundle {
			match = "match"
		}
		tbl.AddRow(r.Path, fmt.Sprint(r.Status), r.ContentType, fmt.Sprint(r.Bytes), r.Latency, match)
	}
	return tbl.Render(c.App.Writer)
}
