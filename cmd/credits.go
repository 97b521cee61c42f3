package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCreditsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Buy and consume credits",
	}

	cmd.AddCommand(
		newCreditsBuyCmd(app),
		newCreditsExtraCmd(app),
		newCreditsBurnCmd(app),
	)

	return cmd
}

func newCreditsBuyCmd(app *app) *cobra.Command {
	var price string

	cmd := &cobra.Command{
		Use:   "buy <credits>",
		Short: "Buy a credit bundle for the current user or team pool",
		Long:  "buy purchases one of the catalogue credit bundles. With --price any amount can be bought at a custom price.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := parseCredits(args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("price") {
				amount, err := decimal.NewFromString(price)
				if err != nil {
					return fmt.Errorf("%w: price %q", domain.ErrInvalidAmount, price)
				}
				if err := confirmPayment(cmd, paymentRequest{
					Title:       "Buy credits",
					Description: fmt.Sprintf("%d credits at a custom price", credits),
					Amount:      amount,
				}, func(ctx context.Context) error {
					return app.store.BuyCredits(ctx, credits, amount)
				}); err != nil {
					return err
				}
				return printf(cmd, "bought %d credits for $%s\n", credits, amount.StringFixed(2))
			}

			bundle, err := app.store.Pricing().CreditBundle(credits)
			if err != nil {
				return err
			}
			if err := confirmPayment(cmd, paymentRequest{
				Title:       "Buy credits",
				Description: fmt.Sprintf("%d credit bundle", bundle.Credits),
				Amount:      bundle.Price,
			}, func(ctx context.Context) error {
				return app.checkout.PurchaseCreditBundle(ctx, credits)
			}); err != nil {
				return err
			}
			return printf(cmd, "bought %d credits for $%s\n", bundle.Credits, bundle.Price.StringFixed(2))
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "Custom price instead of the catalogue bundle")
	return cmd
}

func newCreditsExtraCmd(app *app) *cobra.Command {
	var bundles map[string]int

	cmd := &cobra.Command{
		Use:     "extra",
		Short:   "Buy one-time extra credits on a Pro or Teams plan",
		Example: "  planctl credits extra --bundle 1000=2 --bundle 5000=1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quantities := make(map[int64]int, len(bundles))
			for size, count := range bundles {
				credits, err := parseCredits(size)
				if err != nil {
					return err
				}
				quantities[credits] += count
			}
			if len(quantities) == 0 {
				return fmt.Errorf("%w: pass at least one --bundle", domain.ErrInvalidInput)
			}

			total, credits, err := extraBundleTotal(app.store.Pricing(), quantities)
			if err != nil {
				return err
			}
			if err := confirmPayment(cmd, paymentRequest{
				Title:       "Buy extra credits",
				Description: fmt.Sprintf("%d one-time credits on top of your plan", credits),
				Amount:      total,
			}, func(ctx context.Context) error {
				return app.checkout.PurchaseExtraBundles(ctx, quantities)
			}); err != nil {
				return err
			}
			return printf(cmd, "bought %d extra credits for $%s\n", credits, total.StringFixed(2))
		},
	}

	cmd.Flags().StringToIntVar(&bundles, "bundle", nil, "Bundle size and quantity, e.g. 1000=2")
	return cmd
}

func newCreditsBurnCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "burn <credits>",
		Short: "Consume credits, capped at what is left",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := parseCredits(args[0])
			if err != nil {
				return err
			}
			if err := app.store.BurnCredits(cmd.Context(), credits); err != nil {
				return err
			}

			summary, err := app.store.Summary()
			if err != nil {
				return err
			}
			return printf(cmd, "%d credits left\n", summary.RemainingCredits)
		},
	}
}

func parseCredits(raw string) (int64, error) {
	credits, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: credits %q", domain.ErrInvalidAmount, raw)
	}
	return credits, nil
}

func extraBundleTotal(pricing domain.Pricing, quantities map[int64]int) (decimal.Decimal, int64, error) {
	sizes := make([]int64, 0, len(quantities))
	for size := range quantities {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	total := decimal.Zero
	var credits int64
	for _, size := range sizes {
		bundle, err := pricing.ExtraCreditBundle(size)
		if err != nil {
			return decimal.Zero, 0, err
		}
		count := int64(quantities[size])
		credits += bundle.Credits * count
		total = total.Add(bundle.Price.Mul(decimal.NewFromInt(count)))
	}
	return total, credits, nil
}
