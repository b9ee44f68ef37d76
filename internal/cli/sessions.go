package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/auth"
)

// PurgeResult reports how many sessions were removed.
type PurgeResult struct {
	Removed int `json:"removed"`
}

func (r PurgeResult) String() string {
	return fmt.Sprintf("Removed %d expired sessions", r.Removed)
}

// NewSessionsCommand creates the sessions command group.
func NewSessionsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		Long: `Expired sessions are never returned by token lookup but stay in the store
until purged. Run this periodically to keep the document small.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			svc := auth.NewService(e.db, auth.WithSessionTTL(opts.Config.SessionTTL))
			n, err := svc.PurgeExpired(context.Background())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to purge sessions", err).WithCode(ErrCodeStore)
			}
			return opts.formatter(cmd).Success(PurgeResult{Removed: n})
		},
	})
	return cmd
}
