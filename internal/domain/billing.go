package domain

import (
	"math"
	"time"
)

const (
	BillingCycleDays       = 30
	AnnualBillingCycleDays = 365
)

func BillingCycleEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, BillingCycleDays)
}

func AnnualBillingCycleEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, AnnualBillingCycleDays)
}

func CycleEndFor(start time.Time, interval BillingInterval) time.Time {
	if interval == IntervalAnnual {
		return AnnualBillingCycleEnd(start)
	}
	return BillingCycleEnd(start)
}

// IsBillingCyclePassed is false for an account without a cycle.
func IsBillingCyclePassed(end, now time.Time) bool {
	if end.IsZero() {
		return false
	}
	return now.After(end)
}

func DaysUntilExpiry(end, now time.Time) int {
	if end.IsZero() {
		return 0
	}
	days := math.Ceil(end.Sub(now).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(days)
}

// ProDowngradeCredits returns how much of the remaining balance survives a
// downgrade to free and how much expires.
func ProDowngradeCredits(remaining, limit int64) (kept, expired int64) {
	remaining = max(0, remaining)
	kept = min(remaining, max(0, limit))
	return kept, remaining - kept
}
