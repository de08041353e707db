package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/camlink/camlink-go/internal/cli/connection"
	"github.com/camlink/camlink-go/internal/infra/buildinfo"
)

type healthView struct {
	Status         string `json:"status" yaml:"status"`
	Version        string `json:"version" yaml:"version"`
	ActiveSessions int    `json:"active_sessions" yaml:"active_sessions"`
	MetricsScrape  string `json:"metrics_scrape" yaml:"metrics_scrape"`
}

// HealthCommand queries the metrics listener.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Query /healthz on the metrics listener",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Metrics listener address",
				Value: "http://127.0.0.1:9104",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token for /metrics (metrics.token)",
				EnvVars: []string{"CAMLINK_METRICS_TOKEN"},
			},
		},
		Action: health,
	}
}

func health(c *cli.Context) error {
	client := connection.NewHTTPClient(c.String("addr"), nil, buildinfo.UserAgent(ProgramName)).
		WithToken(c.String("token"))
	verbosef(c, "GET %s/healthz", client.BaseURL())

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return err
	}
	var view healthView
	if err := connection.ParseResponse(resp, &view); err != nil {
		return err
	}
	view.MetricsScrape = scrape(ctx, client)
	return render(c, view)
}

// scrape reports whether /metrics is readable with the configured token.
func scrape(ctx context.Context, client *connection.HTTPClient) string {
	resp, err := client.Get(ctx, "/metrics")
	if err != nil {
		return "error: " + err.Error()
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return "ok"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("http %d", resp.StatusCode)
	}
}
