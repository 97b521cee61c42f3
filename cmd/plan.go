package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/bnema/planctl/internal/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Change, cancel and renew plans",
	}

	cmd.AddCommand(
		newPlanProCmd(app),
		newPlanTeamsCmd(app),
		newPlanProcessCmd(app),
		newPlanQuoteCmd(app),
	)

	return cmd
}

func newPlanProCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pro",
		Short: "Manage the Pro plan of the current user",
	}

	cmd.AddCommand(
		newProCheckoutCmd(app, "subscribe", "Subscribe to a Pro tier from Free or Pro", app.subscribePro),
		newProCheckoutCmd(app, "upgrade", "Move an existing Pro plan to another tier", app.changeProTier),
		newStoreActionCmd("cancel", "Cancel the Pro plan; credits stay until the cycle ends", "Pro plan cancelled", func(ctx context.Context) error {
			return app.store.CancelProPlan(ctx)
		}),
		newStoreActionCmd("reactivate", "Undo a Pro cancellation, keeping the current cycle", "Pro plan reactivated", func(ctx context.Context) error {
			return app.store.ReactivateProPlan(ctx)
		}),
	)

	return cmd
}

func newProCheckoutCmd(app *app, use, short string, run func(cmd *cobra.Command, tier string, interval domain.BillingInterval) error) *cobra.Command {
	var (
		tier     string
		interval string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, tier, domain.BillingInterval(interval))
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Pro tier name, e.g. starter or growth")
	cmd.Flags().StringVar(&interval, "interval", string(domain.IntervalMonthly), "Billing interval: monthly or annual")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func (a *app) subscribePro(cmd *cobra.Command, tier string, interval domain.BillingInterval) error {
	quote, err := a.checkout.QuotePro(tier, interval)
	if err != nil {
		return err
	}
	if err := confirmPayment(cmd, paymentRequest{
		Title:       "Subscribe to " + quote.Tier.Name,
		Description: fmt.Sprintf("%d credits per month, billed %s", quote.Tier.Credits, quote.Interval),
		Amount:      quote.Price,
	}, func(ctx context.Context) error {
		return a.checkout.SubscribePro(ctx, tier, interval)
	}); err != nil {
		return err
	}
	return printf(cmd, "subscribed to %s (%s) for $%s\n", quote.Tier.Name, quote.Interval, quote.Price.StringFixed(2))
}

func (a *app) changeProTier(cmd *cobra.Command, tier string, interval domain.BillingInterval) error {
	quote, err := a.checkout.QuotePro(tier, interval)
	if err != nil {
		return err
	}
	if err := confirmPayment(cmd, paymentRequest{
		Title:       "Upgrade to " + quote.Tier.Name,
		Description: fmt.Sprintf("%d credits per month, billed %s", quote.Tier.Credits, quote.Interval),
		Amount:      quote.Price,
	}, func(ctx context.Context) error {
		return a.checkout.ChangeProTier(ctx, tier, interval)
	}); err != nil {
		return err
	}
	return printf(cmd, "upgraded to %s (%s)\n", quote.Tier.Name, quote.Interval)
}

func newPlanTeamsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage the Teams plan held by the current user",
	}

	cmd.AddCommand(
		newTeamsSubscribeCmd(app),
		newTeamsChangeCmd(app),
		newTeamsSeatsCmd(app),
		newStoreActionCmd("cancel", "Cancel the team plan at the end of the cycle", "team plan cancelled", func(ctx context.Context) error {
			return app.store.CancelTeamsPlan(ctx)
		}),
		newStoreActionCmd("reactivate", "Reactivate a cancelled or ending team plan", "team plan reactivated", func(ctx context.Context) error {
			return app.store.ReactivateTeamsPlan(ctx)
		}),
		newStoreActionCmd("process", "Close a cancelled team's cycle: everyone drops to Free", "team billing cycle processed", func(ctx context.Context) error {
			return app.store.ProcessBillingCycleTeams(ctx)
		}),
		newStoreActionCmd("delete", "Delete the team and move its members to Free", "team deleted", func(ctx context.Context) error {
			return app.store.DeleteTeam(ctx)
		}),
	)

	return cmd
}

func newTeamsSubscribeCmd(app *app) *cobra.Command {
	var (
		tier     string
		seats    int
		teamName string
	)

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Start a team, moving unused Pro credits into its pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quote, err := app.checkout.QuoteTeams(tier, seats)
			if err != nil {
				return err
			}
			if err := confirmPayment(cmd, paymentRequest{
				Title:       fmt.Sprintf("Start %s on %s", teamName, quote.Tier.Name),
				Description: fmt.Sprintf("%d seats, billed monthly", seats),
				Amount:      quote.MonthlyCost,
			}, func(ctx context.Context) error {
				return app.checkout.SubscribeTeams(ctx, tier, seats, teamName)
			}); err != nil {
				return err
			}
			return printf(cmd, "subscribed to %s with %d seats for $%s/month\n", quote.Tier.Name, seats, quote.MonthlyCost.StringFixed(2))
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Teams tier name, e.g. starter")
	cmd.Flags().IntVar(&seats, "seats", 0, "Seats to buy")
	cmd.Flags().StringVar(&teamName, "team", "", "Team name")
	_ = cmd.MarkFlagRequired("tier")
	_ = cmd.MarkFlagRequired("seats")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func newTeamsChangeCmd(app *app) *cobra.Command {
	var (
		tier     string
		addSeats int
	)

	cmd := &cobra.Command{
		Use:   "change",
		Short: "Move the team to another tier, optionally adding seats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			team, err := currentTeam(app)
			if err != nil {
				return err
			}
			quote, err := app.checkout.QuoteTeams(tier, team.Seats+addSeats)
			if err != nil {
				return err
			}
			if err := confirmPayment(cmd, paymentRequest{
				Title:       "Move team to " + quote.Tier.Name,
				Description: fmt.Sprintf("%d seats, billed monthly", quote.Seats),
				Amount:      quote.MonthlyCost,
			}, func(ctx context.Context) error {
				return app.checkout.ChangeTeam(ctx, tier, addSeats)
			}); err != nil {
				return err
			}
			return printf(cmd, "team moved to %s with %d seats\n", quote.Tier.Name, quote.Seats)
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Teams tier name")
	cmd.Flags().IntVar(&addSeats, "add-seats", 0, "Seats to add on top of the current ones")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func newTeamsSeatsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seats <count>",
		Short: "Set the seat count; rescues a team whose cancellation is pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seats, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: seat count %q", domain.ErrInvalidSeats, args[0])
			}
			if err := app.store.UpdateTeamSeatsOnly(cmd.Context(), seats); err != nil {
				return err
			}
			return printf(cmd, "team now has %d seats\n", seats)
		},
	}
}

func newPlanProcessCmd(app *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Close the billing cycle of a cancelled account and downgrade it to Free",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.store.ProcessBillingCycle(cmd.Context(), email); err != nil {
				return err
			}
			return printf(cmd, "billing cycle processed\n")
		},
	}

	cmd.Flags().StringVar(&email, "account", "", "Account to process (default current user)")
	return cmd
}

func newPlanQuoteCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Show prices without buying anything",
	}

	var (
		proTier  string
		interval string
	)
	proCmd := &cobra.Command{
		Use:   "pro",
		Short: "Quote a Pro tier, or list all Pro tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if proTier == "" {
				return writeProCatalogue(cmd, app.store.Pricing())
			}
			quote, err := app.checkout.QuotePro(proTier, domain.BillingInterval(interval))
			if err != nil {
				return err
			}
			return printf(cmd, "%s (%s): $%s, %d credits/month, $%s/month equivalent\n",
				quote.Tier.Name, quote.Interval, quote.Price.StringFixed(2), quote.Tier.Credits, quote.MonthlyEquivalent.StringFixed(2))
		},
	}
	proCmd.Flags().StringVar(&proTier, "tier", "", "Pro tier name")
	proCmd.Flags().StringVar(&interval, "interval", string(domain.IntervalMonthly), "Billing interval: monthly or annual")

	var (
		teamsTier string
		seats     int
	)
	teamsCmd := &cobra.Command{
		Use:   "teams",
		Short: "Quote a Teams tier for a seat count, or list all Teams tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pricing := app.store.Pricing()
			if teamsTier == "" {
				return writeTeamsCatalogue(cmd, pricing)
			}
			quote, err := app.checkout.QuoteTeams(teamsTier, seats)
			if err != nil {
				return err
			}
			if err := printf(cmd, "%s, %d seats: $%s/month, %d credits per seat\n",
				quote.Tier.Name, quote.Seats, quote.MonthlyCost.StringFixed(2), quote.AvgCreditsPerSeat); err != nil {
				return err
			}
			if quote.BelowRecommended {
				return printf(cmd, "warning: below the recommended %d credits per seat\n", pricing.MinAvgCreditsPerSeat)
			}
			return nil
		},
	}
	teamsCmd.Flags().StringVar(&teamsTier, "tier", "", "Teams tier name")
	teamsCmd.Flags().IntVar(&seats, "seats", 2, "Seat count")

	cmd.AddCommand(proCmd, teamsCmd)
	return cmd
}

func writeProCatalogue(cmd *cobra.Command, pricing domain.Pricing) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIER\tCREDITS\tMONTHLY\tANNUAL")
	for _, tier := range pricing.ProTiers {
		_, _ = fmt.Fprintf(w, "%s\t%d\t$%s\t$%s\n", tier.Name, tier.Credits,
			pricing.ProPrice(tier, domain.IntervalMonthly).StringFixed(2),
			pricing.ProPrice(tier, domain.IntervalAnnual).StringFixed(2))
	}
	return w.Flush()
}

func writeTeamsCatalogue(cmd *cobra.Command, pricing domain.Pricing) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "TIER\tSHARED CREDITS\tMONTHLY\t(+ $%s/seat)\n", pricing.SeatPrice.StringFixed(2))
	for _, tier := range pricing.TeamsTiers {
		_, _ = fmt.Fprintf(w, "%s\t%d\t$%s\t\n", tier.Name, tier.Credits, tier.Price.StringFixed(2))
	}
	return w.Flush()
}

func currentTeam(app *app) (domain.TeamsPlan, error) {
	account, ok := app.store.CurrentUser()
	if !ok {
		return domain.TeamsPlan{}, domain.ErrNoCurrentUser
	}
	team, ok := account.Teams()
	if !ok {
		return domain.TeamsPlan{}, fmt.Errorf("%w: %s is on the %s plan", domain.ErrWrongPlan, account.Email, account.Tier())
	}
	return team, nil
}
