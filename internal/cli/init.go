package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

// InitResult reports what init created.
type InitResult struct {
	ConfigPath    string `json:"config_path"`
	ConfigCreated bool   `json:"config_created"`
	Backend       string `json:"backend"`
	StorePath     string `json:"store_path"`
	Records       int    `json:"records"`
}

// WriteText implements TextWriter.
func (r InitResult) WriteText(w io.Writer) error {
	if r.ConfigCreated {
		fmt.Fprintf(w, "Wrote %s\n", r.ConfigPath)
	} else {
		fmt.Fprintf(w, "Using existing %s\n", r.ConfigPath)
	}
	_, err := fmt.Fprintf(w, "Store ready: %s (%s backend, %d records)\n", r.StorePath, r.Backend, r.Records)
	return err
}

// NewInitCommand creates the init command.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config and create an empty store",
		Long: `Write fmea.yaml with the resolved settings (unless it already exists) and
create the store in the data directory with every collection present.

Examples:
  fmea init
  fmea init --backend sqlite --data-dir /var/lib/fmea`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	result := InitResult{ConfigPath: opts.configPath(), Backend: opts.Config.Backend}

	if _, err := os.Stat(result.ConfigPath); errors.Is(err, fs.ErrNotExist) {
		if err := opts.Config.Write(result.ConfigPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to write config", err).WithCode(ErrCodeConfig)
		}
		result.ConfigCreated = true
	}

	e, err := opts.openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	counts, err := e.db.Counts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize store", err).WithCode(ErrCodeStore)
	}
	result.Records = total(counts)
	result.StorePath = e.backend.Path()

	return opts.formatter(cmd).Success(result)
}
