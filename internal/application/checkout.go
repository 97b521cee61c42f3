package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
)

// Checkout turns a confirmed payment into store mutations plus the matching
// invoice. Each flow commits as a single save.
type Checkout struct {
	store *Store
}

type TeamsQuote struct {
	Tier              domain.TeamsTier
	Seats             int
	MonthlyCost       decimal.Decimal
	AvgCreditsPerSeat int64
	BelowRecommended  bool
}

type ProQuote struct {
	Tier              domain.ProTier
	Interval          domain.BillingInterval
	Price             decimal.Decimal
	MonthlyEquivalent decimal.Decimal
}

func NewCheckout(store *Store) *Checkout {
	return &Checkout{store: store}
}

func (c *Checkout) SubscribePro(ctx context.Context, tierName string, interval domain.BillingInterval) error {
	return c.store.mutate(ctx, "subscribe to pro", func(tx *txn) error {
		plan, err := proPlanFor(tx.pricing, tierName, interval)
		if err != nil {
			return err
		}
		if err := tx.upgradeToPro(plan); err != nil {
			return err
		}
		return tx.invoiceCurrent(plan.Price, fmt.Sprintf("%s subscription (%s)", plan.Name, plan.BillingInterval))
	})
}

func (c *Checkout) ChangeProTier(ctx context.Context, tierName string, interval domain.BillingInterval) error {
	return c.store.mutate(ctx, "change pro tier", func(tx *txn) error {
		plan, err := proPlanFor(tx.pricing, tierName, interval)
		if err != nil {
			return err
		}
		if err := tx.changeProTier(plan); err != nil {
			return err
		}
		return tx.invoiceCurrent(plan.Price, fmt.Sprintf("Upgraded to %s (%s)", plan.Name, plan.BillingInterval))
	})
}

func (c *Checkout) SubscribeTeams(ctx context.Context, tierName string, seats int, teamName string) error {
	return c.store.mutate(ctx, "subscribe to teams", func(tx *txn) error {
		tier, err := tx.pricing.TeamsTier(tierName)
		if err != nil {
			return err
		}
		plan := domain.TeamsPlan{
			TeamName:       teamName,
			PlanName:       tier.Name,
			Seats:          seats,
			MonthlyCredits: tier.Credits,
			SharedCredits:  tier.Credits,
		}
		if err := tx.upgradeToTeams(plan); err != nil {
			return err
		}
		return tx.invoiceCurrent(tx.pricing.TeamsMonthlyCost(tier, seats), fmt.Sprintf("%s - %d seats", tier.Name, seats))
	})
}

// ChangeTeam moves the team to another tier and adds addSeats seats. Unused
// pool credits carry over.
func (c *Checkout) ChangeTeam(ctx context.Context, tierName string, addSeats int) error {
	return c.store.mutate(ctx, "change team plan", func(tx *txn) error {
		tier, err := tx.pricing.TeamsTier(tierName)
		if err != nil {
			return err
		}
		if addSeats < 0 {
			return fmt.Errorf("%w: cannot add %d seats", domain.ErrInvalidSeats, addSeats)
		}
		_, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		seats := team.Seats + addSeats
		if err := tx.changeTeamPlan(tier.Name, tier.Credits, &seats); err != nil {
			return err
		}
		return tx.invoiceCurrent(tx.pricing.TeamsMonthlyCost(tier, seats), fmt.Sprintf("%s - %d seats", tier.Name, seats))
	})
}

func (c *Checkout) PurchaseCreditBundle(ctx context.Context, credits int64) error {
	return c.store.mutate(ctx, "purchase credit bundle", func(tx *txn) error {
		bundle, err := tx.pricing.CreditBundle(credits)
		if err != nil {
			return err
		}
		return tx.buyCredits(bundle.Credits, bundle.Price)
	})
}

// PurchaseExtraBundles buys several extra-credit bundles at once, keyed by
// bundle size with the quantity as value.
func (c *Checkout) PurchaseExtraBundles(ctx context.Context, quantities map[int64]int) error {
	return c.store.mutate(ctx, "purchase extra credits", func(tx *txn) error {
		sizes := make([]int64, 0, len(quantities))
		for size := range quantities {
			sizes = append(sizes, size)
		}
		sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

		var credits int64
		price := decimal.Zero
		for _, size := range sizes {
			count := quantities[size]
			if count < 0 {
				return fmt.Errorf("%w: negative quantity for %d credits", domain.ErrInvalidAmount, size)
			}
			if count == 0 {
				continue
			}
			bundle, err := tx.pricing.ExtraCreditBundle(size)
			if err != nil {
				return err
			}
			credits += bundle.Credits * int64(count)
			price = price.Add(bundle.Price.Mul(decimal.NewFromInt(int64(count))))
		}
		return tx.buyExtraCredits(credits, price)
	})
}

func (c *Checkout) QuoteTeams(tierName string, seats int) (TeamsQuote, error) {
	pricing := c.store.Pricing()
	tier, err := pricing.TeamsTier(tierName)
	if err != nil {
		return TeamsQuote{}, err
	}
	if err := domain.ValidateSeats(seats, pricing.MinTeamSeats, 0); err != nil {
		return TeamsQuote{}, err
	}
	return TeamsQuote{
		Tier:              tier,
		Seats:             seats,
		MonthlyCost:       pricing.TeamsMonthlyCost(tier, seats),
		AvgCreditsPerSeat: domain.AvgCreditsPerSeat(tier.Credits, seats),
		BelowRecommended:  pricing.BelowRecommendedCredits(tier.Credits, seats),
	}, nil
}

func (c *Checkout) QuotePro(tierName string, interval domain.BillingInterval) (ProQuote, error) {
	pricing := c.store.Pricing()
	tier, err := pricing.ProTier(tierName)
	if err != nil {
		return ProQuote{}, err
	}
	interval, err = domain.ParseBillingInterval(string(interval))
	if err != nil {
		return ProQuote{}, err
	}
	return ProQuote{
		Tier:              tier,
		Interval:          interval,
		Price:             pricing.ProPrice(tier, interval),
		MonthlyEquivalent: pricing.ProMonthlyEquivalent(tier),
	}, nil
}

func proPlanFor(pricing domain.Pricing, tierName string, interval domain.BillingInterval) (domain.ProPlan, error) {
	tier, err := pricing.ProTier(tierName)
	if err != nil {
		return domain.ProPlan{}, err
	}
	interval, err = domain.ParseBillingInterval(string(interval))
	if err != nil {
		return domain.ProPlan{}, err
	}
	return domain.ProPlan{
		Name:            tier.Name,
		MonthlyCredits:  tier.Credits,
		Price:           pricing.ProPrice(tier, interval),
		BillingInterval: interval,
	}, nil
}

func (tx *txn) invoiceCurrent(amount decimal.Decimal, description string) error {
	account, err := tx.current()
	if err != nil {
		return err
	}
	tx.addInvoice(&account, amount, description, domain.InvoicePaid)
	tx.put(account)
	return nil
}
