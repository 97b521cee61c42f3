package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bnema/planctl/internal/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook lets prices be written as strings or numbers.
func decimalHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != decimalType {
			return data, nil
		}

		switch value := data.(type) {
		case decimal.Decimal:
			return value, nil
		case string:
			parsed, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("parse decimal %q: %w", value, err)
			}
			return parsed, nil
		case float64:
			return decimal.NewFromFloat(value), nil
		case float32:
			return decimal.NewFromFloat32(value), nil
		case int:
			return decimal.NewFromInt(int64(value)), nil
		case int64:
			return decimal.NewFromInt(value), nil
		case int32:
			return decimal.NewFromInt32(value), nil
		case uint64:
			return decimal.NewFromUint64(value), nil
		default:
			return nil, fmt.Errorf("cannot decode %T as decimal", data)
		}
	}
}

func (o PricingOverrides) Apply(base domain.Pricing) (domain.Pricing, error) {
	out := base
	if o.SeatPrice != nil {
		out.SeatPrice = *o.SeatPrice
	}
	if o.InitialFreeCredits != nil {
		out.InitialFreeCredits = *o.InitialFreeCredits
	}
	if o.MinAvgCreditsPerSeat != nil {
		out.MinAvgCreditsPerSeat = *o.MinAvgCreditsPerSeat
	}
	if o.MaxFreeCreditsOnDowngrade != nil {
		out.MaxFreeCreditsOnDowngrade = *o.MaxFreeCreditsOnDowngrade
	}
	if o.BillingCycleDays != nil {
		out.BillingCycleDays = *o.BillingCycleDays
	}
	if o.AnnualBillingCycleDays != nil {
		out.AnnualBillingCycleDays = *o.AnnualBillingCycleDays
	}
	if o.MinTeamSeats != nil {
		out.MinTeamSeats = *o.MinTeamSeats
	}

	if len(o.ProTiers) > 0 {
		out.ProTiers = make([]domain.ProTier, 0, len(o.ProTiers))
		for _, tier := range o.ProTiers {
			annual := tier.AnnualPrice
			if annual.IsZero() {
				annual = tier.Price.Mul(decimal.NewFromInt(10))
			}
			out.ProTiers = append(out.ProTiers, domain.ProTier{
				Name:        tier.Name,
				Credits:     tier.Credits,
				Price:       tier.Price,
				AnnualPrice: annual,
			})
		}
	}
	if len(o.TeamsTiers) > 0 {
		out.TeamsTiers = make([]domain.TeamsTier, 0, len(o.TeamsTiers))
		for _, tier := range o.TeamsTiers {
			out.TeamsTiers = append(out.TeamsTiers, domain.TeamsTier{Name: tier.Name, Credits: tier.Credits, Price: tier.Price})
		}
	}
	if len(o.CreditBundles) > 0 {
		out.CreditBundles = bundles(o.CreditBundles)
	}
	if len(o.ExtraCreditBundles) > 0 {
		out.ExtraCreditBundles = bundles(o.ExtraCreditBundles)
	}

	if err := out.Validate(); err != nil {
		return domain.Pricing{}, fmt.Errorf("pricing: %w", err)
	}
	return out, nil
}

func bundles(in []BundleConfig) []domain.CreditBundle {
	out := make([]domain.CreditBundle, 0, len(in))
	for _, bundle := range in {
		out = append(out, domain.CreditBundle{Credits: bundle.Credits, Price: bundle.Price})
	}
	return out
}
