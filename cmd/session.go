package cmd

import (
	"fmt"

	"github.com/bnema/planctl/internal/application"
	"github.com/bnema/planctl/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Switch to a user, creating a free account on first login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := app.store.Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", account.Email, account.Tier())
			return err
		},
	}
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.store.Logout(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, ok := app.store.CurrentUser()
			if !ok {
				return domain.ErrNoCurrentUser
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), account.Email)
			return err
		},
	}
}

func newViewAsCmd(app *app) *cobra.Command {
	var (
		asJSON  bool
		maxRows int
	)

	cmd := &cobra.Command{
		Use:   "view-as <email|->",
		Short: "Show the overview as another user sees it",
		Long:  "view-as renders the overview while impersonating another account. Impersonating an active billing admin of your team shows the billing-admin view. Use - to show your own account.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := ""
			if args[0] != "-" {
				normalized, err := application.NormalizeEmail(args[0])
				if err != nil {
					return err
				}
				if _, ok := app.store.Account(normalized); !ok {
					return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, normalized)
				}
				email = normalized
			}

			app.store.SetImpersonatedUser(email)
			return writeSummaryOutput(cmd, app, maxRows, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().IntVar(&maxRows, "rows", 5, "Most recent invoices and transactions to show (0 = all)")
	return cmd
}

func newResetCmd(app *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase every account and the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("%w: reset erases all accounts, pass --force to confirm", domain.ErrInvalidInput)
			}
			if err := app.store.ClearStorage(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "state cleared")
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm erasing the state")
	return cmd
}
