package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/cascade"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Prune bool
}

// CheckResult holds the dangling references found and, with --prune, what
// was removed.
type CheckResult struct {
	Orphans []cascade.Orphan `json:"orphans"`
	Pruned  cascade.Report   `json:"pruned,omitempty"`
}

// WriteText implements TextWriter.
func (r CheckResult) WriteText(w io.Writer) error {
	if len(r.Orphans) == 0 {
		_, err := fmt.Fprintln(w, "No dangling references.")
		return err
	}
	fmt.Fprintf(w, "%d dangling references:\n", len(r.Orphans))
	for _, o := range r.Orphans {
		fmt.Fprintf(w, "  %s/%s: %s -> %s (missing)\n", o.Collection, o.ID, o.Field, o.Ref)
	}
	if r.Pruned != nil {
		fmt.Fprintf(w, "Pruned %d records:\n", r.Pruned.Total())
		for _, name := range r.Pruned.Collections() {
			fmt.Fprintf(w, "  %s: %d\n", name, r.Pruned[name])
		}
	}
	return nil
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report records whose parent is missing",
		Long: `Scan the store for records referencing a missing parent (a cause whose
failure mode is gone, a component whose project is gone, and so on).

With --prune the dangling records are removed together with their own
dependents.

Exit codes:
  0 - No dangling references (or all pruned)
  1 - Dangling references found
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "remove dangling records")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	e, err := opts.openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	orphans, err := e.db.ValidateReferences(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read store", err).WithCode(ErrCodeStore)
	}
	result := CheckResult{Orphans: orphans}

	if opts.Prune && len(orphans) > 0 {
		report, err := e.db.PruneOrphans(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to prune", err).WithCode(ErrCodeStore)
		}
		result.Pruned = report
	}

	f := opts.formatter(cmd)
	if len(orphans) == 0 || opts.Prune {
		return f.Success(result)
	}

	findings := NewExitError(ExitFailure, fmt.Sprintf("%d dangling references", len(orphans))).WithCode(ErrCodeIntegrity)
	if opts.Format == "json" {
		if err := f.Error(findings.ErrCode, findings.Message, result); err != nil {
			return err
		}
		findings.Reported = true
		return findings
	}
	if err := f.Success(result); err != nil {
		return err
	}
	return findings
}
