package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/mermaider-mcp/internal/app"
	"github.com/AltairaLabs/mermaider-mcp/internal/config"
)

const (
	version       = "0.1.0"
	envModulesDir = "MERMAIDER_MODULES_DIR"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code. stdout
// carries nothing but MCP traffic.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, config.ErrNoConfig) || errors.Is(err, config.ErrBadLaunchOptions) {
			_, _ = fmt.Fprintln(stderr, err)
		} else {
			_, _ = fmt.Fprintln(stderr, config.MsgExitedWithError, err)
		}
		return 1
	}
	return 0
}

const longUsage = `MCP server validating and rendering Mermaid diagrams in a headless browser.

The launch configuration is an inline JSON object or a JSON/YAML file.
Recognized keys:
  executablePath (required), headless, args, env, timeout, slowMo, channel,
  ignoreDefaultArgs, handleSIGINT, handleSIGTERM, handleSIGHUP, downloadsPath,
  defaultViewport, ignoreHTTPSErrors, acceptInsecureCerts
Any other key is logged and ignored: the browser driver takes typed options.`

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var (
		debug       bool
		showVersion bool
		opts        app.Options
	)

	root := &cobra.Command{
		Use:           "mermaider [flags] '<inline-json-config>' | <config-file>",
		Short:         "MCP server validating and rendering Mermaid diagrams in a headless browser",
		Long:          longUsage,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, _ = fmt.Fprintf(stderr, "mermaider MCP v%s\n", version)
				return nil
			}

			logLevel := slog.LevelInfo
			if debug {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
				Level: logLevel,
			}))
			slog.SetDefault(logger)

			opts.Args = args
			opts.Version = version
			opts.Stdin = stdin
			opts.Stdout = stdout

			if err := app.Run(cmd.Context(), opts, logger); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stderr, config.MsgExited)
			return nil
		},
	}

	modulesDir := os.Getenv(envModulesDir)
	if modulesDir == "" {
		modulesDir = "."
	}

	flags := root.Flags()
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&showVersion, "version", false, "Print version and exit")
	flags.StringVar(&opts.ModulesDir, "modules-dir", modulesDir,
		"Directory node_modules lookups start from (env "+envModulesDir+")")
	flags.StringVar(&opts.HealthAddr, "health-addr", "", "Serve gRPC health checks on this address")
	flags.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	root.SetOut(stderr)
	root.SetErr(stderr)
	return root
}
