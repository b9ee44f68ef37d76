package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/config"
)

// RootOptions holds global flags for all commands and the configuration
// resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataDir    string
	Backend    string

	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fmea CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the fmea command line with args and returns the process exit
// code. A failure is written to stderr, or to stdout as a JSON error response
// under --format json.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return exitErr.Code
	}
	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}
		if werr := f.Error(ErrorCode(err), err.Error(), nil); werr != nil {
			fmt.Fprintf(stderr, "fmea: %v\n", err)
		}
	} else {
		fmt.Fprintf(stderr, "fmea: %v\n", err)
	}
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmea",
		Short: "FMEA data store administration",
		Long: `Administer the FMEA document store and inspect risk.

Commands operate on the data directory named in fmea.yaml (or --data-dir),
using the JSON file backend or the SQLite backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend json|sqlite (overrides config)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewRPNCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))

	return cmd
}

// configPath returns the config file to read.
func (o *RootOptions) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return config.DefaultPath
}

// resolve loads the config, applies flag overrides and installs the logger.
// An explicit --config must exist, except for init which creates it; the
// default path may be absent.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.ConfigPath != "" && cmd.Name() != "init" {
		if _, err := os.Stat(o.ConfigPath); errors.Is(err, fs.ErrNotExist) {
			return NewExitError(ExitCommandError, fmt.Sprintf("config file not found: %s", o.ConfigPath)).WithCode(ErrCodeConfig)
		}
	}
	cfg, err := config.Load(o.configPath())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err).WithCode(ErrCodeConfig)
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err).WithCode(ErrCodeConfig)
	}
	if err := config.SetupLogging(cmd.ErrOrStderr(), cfg); err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err).WithCode(ErrCodeConfig)
	}
	o.Config = cfg
	return nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
