// Package cli implements the prefstack command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yacchi/prefstack/internal/logging"
	"github.com/yacchi/prefstack/layer/kv"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// errSilent marks an error already reported to the user.
var errSilent = errors.New("silent")

type app struct {
	stdout io.Writer
	stderr io.Writer

	logLevel  string
	logFormat string
	logger    *log.Logger

	sets      []string
	envPrefix string
	noEnv     bool
}

// NewRootCommand creates the prefstack command tree writing to stdout and
// stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "prefstack",
		Short: "Compile layered preference sets into a canonical user.js",
		Long: `prefstack parses user.js, YAML, TOML and JSONC preference layers, merges
them with last-write-wins precedence, validates them against each other and
an optional schema, and writes one deterministic user.js.

Later layers override earlier ones. Environment variables (` + kv.DefaultEnvPrefix + `*)
and --set flags apply on top of every file layer.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogger()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (default warn)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text, json or logfmt (default text)")
	pf.StringArrayVar(&a.sets, "set", nil, "override a preference, e.g. --set browser.startup.page=3 (repeatable)")
	pf.StringVar(&a.envPrefix, "env-prefix", kv.DefaultEnvPrefix, "prefix of environment variables holding key=value overrides")
	pf.BoolVar(&a.noEnv, "no-env", false, "ignore environment overrides")

	root.AddCommand(
		a.newParseCommand(),
		a.newMergeCommand(),
		a.newValidateCommand(),
		a.newEmitCommand(),
		a.newBuildCommand(),
		a.newWatchCommand(),
		a.newVersionCommand(),
	)
	return root
}

func (a *app) setupLogger() error {
	opts := logging.DefaultOptions()
	if err := logging.Configure(&opts, a.logLevel, a.logFormat); err != nil {
		return err
	}
	a.logger = logging.New(a.stderr, opts)
	return nil
}

// configureLogger applies project settings that no flag overrides.
func (a *app) configureLogger(level, format string) error {
	if a.logLevel == "" && level != "" {
		a.logLevel = level
	}
	if a.logFormat == "" && format != "" {
		a.logFormat = format
	}
	return a.setupLogger()
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(stderr, "prefstack: %v\n", err)
		}
		return 1
	}
	return 0
}

// Main runs the command line with the process arguments.
func Main(ctx context.Context) int {
	return Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "prefstack version %s\n", Version)
			return err
		},
	}
}
