package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/auth"
	"github.com/roach88/fmea/internal/query"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "FMEA_PASSWORD"

// UserOptions holds flags for the user add command.
type UserOptions struct {
	*RootOptions
	Email    string
	Name     string
	Password string
}

// UserResult describes a created user. The password hash is never printed.
type UserResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (r UserResult) String() string {
	return fmt.Sprintf("Created user %s <%s> (%s)", r.ID, r.Email, r.Role)
}

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a user with a password",
		Long: `Register a standard user. The password comes from --password or, when that
is empty, from the ` + PasswordEnv + ` environment variable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(opts, cmd)
		},
	}
	add.Flags().StringVar(&opts.Email, "email", "", "email address (required)")
	_ = add.MarkFlagRequired("email")
	add.Flags().StringVar(&opts.Name, "name", "", "display name")
	add.Flags().StringVar(&opts.Password, "password", "", "password (default $"+PasswordEnv+")")

	cmd.AddCommand(add)
	return cmd
}

func runUserAdd(opts *UserOptions, cmd *cobra.Command) error {
	password := opts.Password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	if password == "" {
		return NewExitError(ExitCommandError, "a password is required (--password or $"+PasswordEnv+")")
	}

	e, err := opts.openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	svc := auth.NewService(e.db, auth.WithSessionTTL(opts.Config.SessionTTL))
	u, err := svc.Register(context.Background(), opts.Email, opts.Name, password)
	if errors.Is(err, query.ErrDuplicate) {
		return WrapExitError(ExitCommandError, "email already registered", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create user", err)
	}
	return opts.formatter(cmd).Success(UserResult{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
}
