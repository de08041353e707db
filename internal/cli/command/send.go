package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/camlink/camlink-go/internal/cli/connection"
	"github.com/camlink/camlink-go/internal/cli/frames"
	"github.com/camlink/camlink-go/internal/cli/output"
	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/infra/buildinfo"
)

// defaultHost is the local endpoint.
var defaultHost = "127.0.0.1:" + strconv.Itoa(domain.StreamPort)

type sendResult struct {
	URL      string `json:"url" yaml:"url"`
	Trust    string `json:"trust" yaml:"trust"`
	Frames   int    `json:"frames" yaml:"frames"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Duration string `json:"duration" yaml:"duration"`
}

// SendCommand streams JPEG files to a running endpoint.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Stream JPEG files to an endpoint as a phone would",
		ArgsUsage: "FILE.jpg [FILE.jpg...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Endpoint host or host:port",
				Value: defaultHost,
			},
			&cli.Float64Flag{
				Name:  "fps",
				Usage: "Frames per second",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "loop",
				Usage: "Passes over the file list, 0 repeats until interrupted",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Downscale frames wider than this many pixels",
			},
			&cli.IntFlag{
				Name:  "quality",
				Usage: "Re-encode JPEG quality (1-100); 0 sends files as they are",
			},
		},
		Action: sendFrames,
	}
}

func sendFrames(c *cli.Context) error {
	fps := c.Float64("fps")
	if fps <= 0 || fps > 120 {
		return fmt.Errorf("--fps must be in (0, 120], got %v", fps)
	}
	if q := c.Int("quality"); q < 0 || q > 100 {
		return fmt.Errorf("--quality must be in [0, 100], got %d", q)
	}
	loops := c.Int("loop")
	if loops < 0 {
		return fmt.Errorf("--loop must not be negative")
	}

	list, err := frames.LoadFiles(c.Args().Slice(), c.Int("width"), c.Int("quality"))
	if err != nil {
		return err
	}
	verbosef(c, "loaded %d frames", len(list))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := ParseGlobalFlags(c)
	tlsConfig, err := flags.Trust.ClientConfig()
	if err != nil {
		return err
	}
	wsURL := connection.StreamURL(withDefaultPort(c.String("host")), domain.WebSocketPath)

	spin := output.NewSpinner(c.App.ErrWriter, "connecting to "+wsURL)
	spin.Start()
	producer, err := connection.Dial(ctx, wsURL, tlsConfig, buildinfo.UserAgent(ProgramName))
	if err != nil {
		spin.Fail("connection failed")
		return err
	}
	spin.Success("connected (" + flags.Trust.Mode() + ")")
	defer producer.Close()

	total := 0
	if loops > 0 {
		total = loops * len(list)
	}
	meter := output.NewFrameMeter(c.App.ErrWriter, "sending", total)
	start := time.Now()
	sent, bytes, err := pump(ctx, producer, list, loops, time.Duration(float64(time.Second)/fps), meter.Add)
	meter.Finish()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := producer.Close(); err != nil {
		verbosef(c, "close: %v", err)
	}

	return render(c, sendResult{
		URL:      wsURL,
		Trust:    flags.Trust.Mode(),
		Frames:   sent,
		Bytes:    bytes,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	})
}

// sender is the part of a producer pump needs.
type sender interface {
	Send(frame string) error
}

// pump sends list loops times, or until ctx ends when loops is 0, pacing
// frames by interval.
func pump(ctx context.Context, s sender, list []frames.Frame, loops int, interval time.Duration, onSent func(int)) (int, int64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sent int
	var bytes int64
	for pass := 0; loops == 0 || pass < loops; pass++ {
		for _, f := range list {
			if sent > 0 {
				select {
				case <-ctx.Done():
					return sent, bytes, ctx.Err()
				case <-ticker.C:
				}
			} else if err := ctx.Err(); err != nil {
				return sent, bytes, err
			}
			if err := s.Send(f.Data); err != nil {
				return sent, bytes, err
			}
			sent++
			bytes += int64(len(f.Data))
			if onSent != nil {
				onSent(len(f.Data))
			}
		}
	}
	return sent, bytes, nil
}

// withDefaultPort appends the stream port when host has none.
func withDefaultPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(domain.StreamPort))
}
