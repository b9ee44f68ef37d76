package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/query"
	"github.com/roach88/fmea/internal/rpn"
)

// RPNReport wraps query.RiskReport for text output.
type RPNReport struct {
	query.RiskReport
}

// WriteText implements TextWriter.
func (r RPNReport) WriteText(w io.Writer) error {
	t := r.Thresholds
	fmt.Fprintf(w, "Project: %s (%s)\n", r.Project.Name, r.Project.ID)
	fmt.Fprintf(w, "Thresholds: critical >= %d, high >= %d, medium >= %d\n\n", t.Critical, t.High, t.Medium)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RPN\tLEVEL\tPOST\tPOST LEVEL\tOPEN\tFAILURE MODE")
	for _, a := range r.Assessments {
		post := "-"
		if a.Residual.Assessed {
			post = fmt.Sprint(a.Residual.RPN)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", a.RPN, a.Level, post, a.PostLevel, a.OpenActions, a.FailureMode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary
	fmt.Fprintf(w, "\n%d failure modes, highest RPN %d, mean %.1f, open actions %d\n",
		s.FailureModes, s.HighestRPN, s.MeanRPN, s.OpenActions)
	for _, l := range rpn.Levels {
		fmt.Fprintf(w, "  %-8s %d\n", l, s.ByLevel[l])
	}
	return nil
}

// NewRPNCommand creates the rpn command.
func NewRPNCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rpn <project-id>",
		Short: "Score every failure mode of a project",
		Long: `Compute the Risk Priority Number of every failure mode in the project,
band it against the organization's thresholds (or the configured defaults),
and summarize the residual risk after mitigation.

Examples:
  fmea rpn 01J9Z3K8W6Q4
  fmea rpn 01J9Z3K8W6Q4 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRPN(opts, cmd, args[0])
		},
	}
}

func runRPN(opts *RootOptions, cmd *cobra.Command, projectID string) error {
	e, err := opts.openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := e.db.ProjectRiskReport(context.Background(), projectID)
	if errors.Is(err, query.ErrNotFound) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("project %s", projectID), err).WithCode(ErrCodeNotFound)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build risk report", err).WithCode(ErrCodeStore)
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(report)
	}
	return opts.formatter(cmd).Success(RPNReport{report})
}
