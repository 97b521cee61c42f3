package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/bnema/planctl/internal/application"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newStoreActionCmd builds an argument-less command around a single store
// mutation and prints done when it commits.
func newStoreActionCmd(use, short, done string, run func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := run(cmd.Context()); err != nil {
				return err
			}
			return printf(cmd, "%s\n", done)
		},
	}
}

// newEmailActionCmd wraps a store mutation that targets one email. run is a
// method expression so the store is resolved after wiring.
func newEmailActionCmd(app *app, use, short, done string, run func(s *application.Store, ctx context.Context, email string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(app.store, cmd.Context(), args[0]); err != nil {
				return err
			}
			return printf(cmd, "%s: %s\n", done, args[0])
		},
	}
}

// confirmPayment runs a checkout. On a terminal it shows the payment step and,
// unless --yes was given or stdin is not interactive, waits for authorization.
func confirmPayment(cmd *cobra.Command, request paymentRequest, checkout func(ctx context.Context) error) error {
	out := cmd.ErrOrStderr()
	if !isTerminal(out) {
		return checkout(cmd.Context())
	}

	assumeYes, _ := cmd.Flags().GetBool("yes")
	prompt := !assumeYes && isTerminal(cmd.InOrStdin())
	return runPayment(cmd.Context(), prompt, out, request, checkout)
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printf(cmd *cobra.Command, format string, args ...any) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	return err
}

// creditLimitFlag returns nil unless --credit-limit was given.
func creditLimitFlag(cmd *cobra.Command, value int64) *int64 {
	if !cmd.Flags().Changed("credit-limit") {
		return nil
	}
	return &value
}
