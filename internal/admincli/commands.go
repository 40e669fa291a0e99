// Package admincli implements the operator command line: schema migrations
// and account bootstrap for the scoresheets server.
package admincli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

// Accounts is the slice of the user service the commands need.
type Accounts interface {
	CreateAccount(ctx context.Context, email, password string, admin bool) (*models.User, error)
	SetAdmin(ctx context.Context, email string, admin bool) error
	CountUsers(ctx context.Context) (int, error)
}

// Backend is opened once per command and closed when it finishes.
type Backend interface {
	Accounts() Accounts
	Migrate(ctx context.Context) error
	// Describe turns a service error into operator-facing text.
	Describe(ctx context.Context, err error) string
	Close() error
}

// Opener connects to the database named by dsn ("" keeps the configured one).
type Opener func(ctx context.Context, dsn string) (Backend, error)

type cli struct {
	open Opener
	in   *bufio.Reader
	dsn  string
}

// NewRootCmd builds the command tree. Output goes to the command's writer so
// tests can capture it with SetOut.
func NewRootCmd(open Opener, in io.Reader) *cobra.Command {
	c := &cli{open: open, in: bufio.NewReader(in)}

	root := &cobra.Command{
		Use:           "scoresheets-admin",
		Short:         "Operator tools for the BJCP scoresheets server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.dsn, "dsn", "", "database DSN (overrides DATABASE_DSN)")
	// read by the config loader
	root.PersistentFlags().StringP("config", "c", "", "path to JSON config file")

	root.AddCommand(c.migrateCmd(), c.createUserCmd(), c.grantAdminCmd(), c.countCmd())
	return root
}

func (c *cli) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := c.open(ctx, c.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer b.Close()

	if err := fn(ctx, b); err != nil {
		return fmt.Errorf("%s", b.Describe(ctx, err))
	}
	return nil
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func (c *cli) createUserCmd() *cobra.Command {
	var email string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a verified account",
		Long: `Create an account whose email is already verified.

The password is read from the terminal twice. Use --admin to grant the
admin role right away, e.g. for the first competition organiser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				email, err = GetSimpleText(c.in, "Email", cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}
			password, err := GetNewPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				u, err := b.Accounts().CreateAccount(ctx, strings.TrimSpace(email), password, admin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	return cmd
}

func (c *cli) grantAdminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "grant-admin EMAIL",
		Short: "Grant (or with --revoke, remove) the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Accounts().SetAdmin(ctx, args[0], !revoke); err != nil {
					return err
				}
				if revoke {
					fmt.Fprintf(cmd.OutOrStdout(), "Admin role removed from %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Admin role granted to %s\n", args[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin role instead")
	return cmd
}

func (c *cli) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count-users",
		Short: "Print the number of registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b Backend) error {
				n, err := b.Accounts().CountUsers(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}
