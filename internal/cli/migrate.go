package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/config"
	"github.com/roach88/fmea/internal/model"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	To    string
	Force bool
}

// MigrateResult reports a completed copy between backends.
type MigrateResult struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Counts map[string]int `json:"counts"`
}

// WriteText implements TextWriter.
func (r MigrateResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Copied %s (%s) to %s (%s)\n", r.Source, r.From, r.Target, r.To)
	for _, name := range model.Collections {
		if n := r.Counts[name]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", name, n)
		}
	}
	return nil
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the document to the other backend",
		Long: `Copy every record from the configured backend to the backend named by --to,
in the same data directory. The target must be empty unless --force is given.
A JSON source that cannot be parsed is refused; repair or remove it first.

Examples:
  fmea migrate --to sqlite
  fmea migrate --backend sqlite --to json --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "target backend json|sqlite (required)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite a non-empty target")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	from := opts.Config.Backend
	if opts.To != config.BackendJSON && opts.To != config.BackendSQLite {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown target backend %q", opts.To))
	}
	if opts.To == from {
		return NewExitError(ExitCommandError, fmt.Sprintf("store already uses the %s backend", from))
	}

	src, err := openBackend(from, opts.Config.DataDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open source", err).WithCode(ErrCodeStore)
	}
	defer src.Close()
	dst, err := openBackend(opts.To, opts.Config.DataDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open target", err).WithCode(ErrCodeStore)
	}
	defer dst.Close()

	existing, err := dst.Load(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read target", err).WithCode(ErrCodeStore)
	}
	if total(existing.Counts()) > 0 && !opts.Force {
		return NewExitError(ExitCommandError, fmt.Sprintf("target %s is not empty (use --force to overwrite)", dst.Path()))
	}

	doc, err := loadSource(ctx, src)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read source", err).WithCode(ErrCodeStore)
	}
	if err := dst.Save(ctx, doc); err != nil {
		return WrapExitError(ExitCommandError, "failed to write target", err).WithCode(ErrCodeStore)
	}

	copied, err := dst.Load(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read target", err).WithCode(ErrCodeStore)
	}
	counts := copied.Counts()
	if lost := total(doc.Counts()) - total(counts); lost > 0 {
		slog.Warn("records not copied", "count", lost)
	}
	slog.Info("migrated document", "from", from, "to", opts.To, "records", total(counts))

	return opts.formatter(cmd).Success(MigrateResult{
		From:   from,
		To:     opts.To,
		Source: src.Path(),
		Target: dst.Path(),
		Counts: counts,
	})
}

// loadSource reads the document to copy. A JSON source that cannot be parsed
// is an error here rather than an empty document, so a corrupt file never
// overwrites a populated target.
func loadSource(ctx context.Context, src backend) (*model.Document, error) {
	if strict, ok := src.(interface {
		LoadStrict(ctx context.Context) (*model.Document, error)
	}); ok {
		return strict.LoadStrict(ctx)
	}
	return src.Load(ctx)
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
