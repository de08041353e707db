package command

import (
	"context"
	"fmt"
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
	"github.com/camlink/camlink-go/internal/server/advertise"
)

// resolveIP is replaced in tests.
var resolveIP advertise.Resolver = advertise.PrimaryIPv4

type urlView struct {
	URL  string `json:"url" yaml:"url"`
	Host string `json:"host" yaml:"host"`
	Port string `json:"port" yaml:"port"`
}

// URLCommand prints the advertised stream URL.
func URLCommand() *cli.Command {
	return &cli.Command{
		Name:   "url",
		Usage:  "Print the URL phones should open",
		Action: showURL,
	}
}

func showURL(c *cli.Context) error {
	cmds := hostbus.NewCommands()
	advertise.RegisterWith(cmds, domain.StreamPort, resolveIP)

	res, err := cmds.Invoke(context.Background(), domain.CommandGetStreamURL)
	if err != nil {
		return err
	}
	raw, _ := res.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse advertised url: %w", err)
	}

	if ParseGlobalFlags(c).Output == "table" {
		fmt.Fprintln(c.App.Writer, raw)
		return nil
	}
	return render(c, urlView{URL: raw, Host: u.Hostname(), Port: u.Port()})
}
