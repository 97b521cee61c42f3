package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	summaryview "github.com/bnema/planctl/internal/adapters/render/summary"
	"github.com/bnema/planctl/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var (
		asJSON  bool
		maxRows int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show plan, credits and billing cycle for the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSummaryOutput(cmd, app, maxRows, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().IntVar(&maxRows, "rows", 5, "Most recent invoices and transactions to show (0 = all)")
	return cmd
}

func newInvoicesCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List invoices of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := historyAccount(app)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, account.Invoices)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), summaryview.RenderInvoices(account.Invoices, 0))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newTransactionsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List credit transactions of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := historyAccount(app)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, account.CreditTransactions)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), summaryview.RenderTransactions(account.CreditTransactions, 0))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newAccountsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List every known account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, _ := app.store.CurrentUser()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, account := range app.store.Accounts() {
				marker := " "
				if account.Email == current.Email {
					marker = "*"
				}
				_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\n", marker, account.Email, account.Tier(), account.Status())
			}
			return w.Flush()
		},
	}
}

func writeSummaryOutput(cmd *cobra.Command, app *app, maxRows int, asJSON bool) error {
	summary, err := app.store.Summary()
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, summary)
	}

	account, err := historyAccount(app)
	if err != nil {
		return err
	}

	rendered, err := app.summaryRenderer(summaryview.View{
		Summary:      summary,
		Invoices:     account.Invoices,
		Transactions: account.CreditTransactions,
	}, summaryview.RenderOptions{
		Now:     app.now(),
		MaxRows: maxRows,
	})
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// historyAccount is the account whose invoices and transactions are shown: the
// viewed account, or the team holder when viewing as a billing admin.
func historyAccount(app *app) (domain.Account, error) {
	if app.store.IsViewingAsBillingAdmin() {
		account, _ := app.store.CurrentUser()
		return account, nil
	}
	account, ok := app.store.ViewingAsUser()
	if !ok {
		if _, loggedIn := app.store.CurrentUser(); !loggedIn {
			return domain.Account{}, domain.ErrNoCurrentUser
		}
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
