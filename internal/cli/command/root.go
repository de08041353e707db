package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/camlink/camlink-go/internal/cli/output"
	"github.com/camlink/camlink-go/internal/infra/buildinfo"
	"github.com/camlink/camlink-go/internal/infra/tlsroots"
)

// ProgramName is used for the app name and the User-Agent header.
const ProgramName = "camlink-cli"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    ProgramName,
		Usage:   "camlink LAN camera bridge tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			URLCommand(),
			CertCommand(),
			SendCommand(),
			ProbeCommand(),
			HealthCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "fingerprint",
			Usage:   "Pin the server certificate by SHA-256 fingerprint",
			EnvVars: []string{"CAMLINK_FINGERPRINT"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "Verify the server certificate against this PEM file",
			EnvVars: []string{"CAMLINK_CA_FILE"},
		},
		&cli.StringFlag{
			Name:  "server-name",
			Usage: "Server name checked with --ca-file (default localhost)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Output  string
	Trust   tlsroots.Trust
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Output: c.String("output"),
		Trust: tlsroots.Trust{
			Fingerprint: c.String("fingerprint"),
			CAFile:      c.String("ca-file"),
			ServerName:  c.String("server-name"),
		},
		Verbose: c.Bool("verbose"),
	}
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// verbosef prints to stderr when --verbose is set.
func verbosef(c *cli.Context, format string, args ...any) {
	if ParseGlobalFlags(c).Verbose {
		fmt.Fprintf(c.App.ErrWriter, format+"\n", args...)
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
