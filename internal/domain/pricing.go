package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProTier struct {
	Name        string
	Credits     int64
	Price       decimal.Decimal
	AnnualPrice decimal.Decimal
}

type TeamsTier struct {
	Name    string
	Credits int64
	Price   decimal.Decimal
}

type CreditBundle struct {
	Credits int64
	Price   decimal.Decimal
}

// Pricing is the static catalogue the store and checkout flows read from.
type Pricing struct {
	SeatPrice                 decimal.Decimal
	ProTiers                  []ProTier
	TeamsTiers                []TeamsTier
	CreditBundles             []CreditBundle
	ExtraCreditBundles        []CreditBundle
	InitialFreeCredits        int64
	MinAvgCreditsPerSeat      int64
	MaxFreeCreditsOnDowngrade int64
	BillingCycleDays          int
	AnnualBillingCycleDays    int
	MinTeamSeats              int
}

func DefaultPricing() Pricing {
	return Pricing{
		SeatPrice: decimal.NewFromInt(10),
		ProTiers: []ProTier{
			{Name: "Pro Starter", Credits: 1000, Price: decimal.NewFromInt(20), AnnualPrice: decimal.NewFromInt(200)},
			{Name: "Pro Growth", Credits: 2500, Price: decimal.NewFromInt(45), AnnualPrice: decimal.NewFromInt(450)},
			{Name: "Pro Enterprise", Credits: 5000, Price: decimal.NewFromInt(80), AnnualPrice: decimal.NewFromInt(800)},
		},
		TeamsTiers: []TeamsTier{
			{Name: "Teams Starter", Credits: 5000, Price: decimal.NewFromInt(100)},
			{Name: "Teams Growth", Credits: 10000, Price: decimal.NewFromInt(180)},
			{Name: "Teams Enterprise", Credits: 25000, Price: decimal.NewFromInt(400)},
		},
		CreditBundles: []CreditBundle{
			{Credits: 500, Price: decimal.NewFromInt(15)},
			{Credits: 1000, Price: decimal.NewFromInt(25)},
			{Credits: 2500, Price: decimal.NewFromInt(55)},
		},
		ExtraCreditBundles: []CreditBundle{
			{Credits: 1000, Price: decimal.NewFromInt(10)},
			{Credits: 5000, Price: decimal.NewFromInt(50)},
			{Credits: 10000, Price: decimal.NewFromInt(100)},
		},
		InitialFreeCredits:        150,
		MinAvgCreditsPerSeat:      1000,
		MaxFreeCreditsOnDowngrade: 150,
		BillingCycleDays:          BillingCycleDays,
		AnnualBillingCycleDays:    AnnualBillingCycleDays,
		MinTeamSeats:              2,
	}
}

func (p Pricing) Validate() error {
	if p.SeatPrice.IsNegative() {
		return fmt.Errorf("seat price must not be negative")
	}
	if p.InitialFreeCredits < 0 || p.MaxFreeCreditsOnDowngrade < 0 {
		return fmt.Errorf("credit constants must not be negative")
	}
	if p.BillingCycleDays <= 0 || p.AnnualBillingCycleDays <= 0 {
		return fmt.Errorf("billing cycle days must be positive")
	}
	if p.MinTeamSeats < 1 {
		return fmt.Errorf("min team seats must be at least 1")
	}
	for _, tier := range p.ProTiers {
		if strings.TrimSpace(tier.Name) == "" || tier.Credits <= 0 {
			return fmt.Errorf("pro tier %q is incomplete", tier.Name)
		}
	}
	for _, tier := range p.TeamsTiers {
		if strings.TrimSpace(tier.Name) == "" || tier.Credits <= 0 {
			return fmt.Errorf("teams tier %q is incomplete", tier.Name)
		}
	}
	return nil
}

// CycleEnd uses the configured cycle lengths rather than the package defaults.
func (p Pricing) CycleEnd(start time.Time, interval BillingInterval) time.Time {
	if interval == IntervalAnnual {
		return start.AddDate(0, 0, p.AnnualBillingCycleDays)
	}
	return start.AddDate(0, 0, p.BillingCycleDays)
}

func (p Pricing) ProTier(name string) (ProTier, error) {
	for _, tier := range p.ProTiers {
		if matchesTier(tier.Name, name) {
			return tier, nil
		}
	}
	return ProTier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}

func (p Pricing) TeamsTier(name string) (TeamsTier, error) {
	for _, tier := range p.TeamsTiers {
		if matchesTier(tier.Name, name) {
			return tier, nil
		}
	}
	return TeamsTier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}

func (p Pricing) TeamsTierByCredits(credits int64) (TeamsTier, bool) {
	for _, tier := range p.TeamsTiers {
		if tier.Credits == credits {
			return tier, true
		}
	}
	return TeamsTier{}, false
}

func (p Pricing) CreditBundle(credits int64) (CreditBundle, error) {
	return findBundle(p.CreditBundles, credits)
}

func (p Pricing) ExtraCreditBundle(credits int64) (CreditBundle, error) {
	return findBundle(p.ExtraCreditBundles, credits)
}

func (p Pricing) ProPrice(tier ProTier, interval BillingInterval) decimal.Decimal {
	if interval == IntervalAnnual {
		return tier.AnnualPrice
	}
	return tier.Price
}

// ProMonthlyEquivalent is the annual price spread over twelve months, rounded
// to whole currency units.
func (p Pricing) ProMonthlyEquivalent(tier ProTier) decimal.Decimal {
	return tier.AnnualPrice.Div(decimal.NewFromInt(12)).Round(0)
}

func (p Pricing) TeamsMonthlyCost(tier TeamsTier, seats int) decimal.Decimal {
	return tier.Price.Add(p.SeatPrice.Mul(decimal.NewFromInt(int64(max(0, seats)))))
}

// TeamsReactivationCost prices a new cycle for a team that only knows its
// monthly credits. Unknown tiers are charged seats only.
func (p Pricing) TeamsReactivationCost(monthlyCredits int64, seats int) (decimal.Decimal, string) {
	tier, ok := p.TeamsTierByCredits(monthlyCredits)
	if !ok {
		return p.SeatPrice.Mul(decimal.NewFromInt(int64(max(0, seats)))), ""
	}
	return p.TeamsMonthlyCost(tier, seats), tier.Name
}

func AvgCreditsPerSeat(credits int64, seats int) int64 {
	if seats <= 0 {
		return 0
	}
	return credits / int64(seats)
}

func (p Pricing) BelowRecommendedCredits(credits int64, seats int) bool {
	return AvgCreditsPerSeat(credits, seats) < p.MinAvgCreditsPerSeat
}

func findBundle(bundles []CreditBundle, credits int64) (CreditBundle, error) {
	for _, bundle := range bundles {
		if bundle.Credits == credits {
			return bundle, nil
		}
	}
	return CreditBundle{}, fmt.Errorf("%w: no bundle of %d credits", ErrUnknownTier, credits)
}

func matchesTier(tierName, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return false
	}
	name := strings.ToLower(tierName)
	if name == query {
		return true
	}
	// "growth" matches "Pro Growth"
	fields := strings.Fields(name)
	return len(fields) > 1 && fields[len(fields)-1] == query
}
