package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PlanTier string
type PlanStatus string
type BillingInterval string

const (
	TierFree  PlanTier = "free"
	TierPro   PlanTier = "pro"
	TierTeams PlanTier = "teams"

	StatusActive              PlanStatus = "active"
	StatusCancellationPending PlanStatus = "cancellation-pending"
	StatusCancelled           PlanStatus = "cancelled"

	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// Plan is the payload of an account's subscription. Exactly one of FreePlan,
// ProPlan or TeamsPlan is held at a time.
type Plan interface {
	Tier() PlanTier
	clonePlan() Plan
}

type FreePlan struct{}

func (FreePlan) Tier() PlanTier { return TierFree }

func (p FreePlan) clonePlan() Plan { return p }

type ProPlan struct {
	Name            string
	MonthlyCredits  int64
	Price           decimal.Decimal
	BillingInterval BillingInterval
}

func (ProPlan) Tier() PlanTier { return TierPro }

func (p ProPlan) clonePlan() Plan { return p }

func (p ProPlan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: plan name is required", ErrInvalidInput)
	}
	if p.MonthlyCredits <= 0 {
		return fmt.Errorf("%w: monthly credits must be positive", ErrInvalidAmount)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidAmount)
	}
	if _, err := ParseBillingInterval(string(p.BillingInterval)); err != nil {
		return err
	}
	return nil
}

type TeamsPlan struct {
	TeamName          string
	PlanName          string
	Seats             int
	MonthlyCredits    int64
	SharedCredits     int64
	SharedCreditsUsed int64
	ExtraCredits      int64
	Members           []TeamMember
	BillingAdmins     []BillingAdmin
}

func (TeamsPlan) Tier() PlanTier { return TierTeams }

func (t TeamsPlan) clonePlan() Plan {
	return t.Clone()
}

func (t TeamsPlan) Clone() TeamsPlan {
	out := t
	if t.Members != nil {
		out.Members = make([]TeamMember, len(t.Members))
		for i, member := range t.Members {
			out.Members[i] = member.clone()
		}
	}
	if t.BillingAdmins != nil {
		out.BillingAdmins = append([]BillingAdmin(nil), t.BillingAdmins...)
	}
	return out
}

// Available is the unspent part of the shared pool, never negative.
func (t TeamsPlan) Available() int64 {
	return max(0, t.SharedCredits-t.SharedCreditsUsed)
}

func ParseTier(raw string) (PlanTier, error) {
	switch tier := PlanTier(strings.ToLower(strings.TrimSpace(raw))); tier {
	case TierFree, TierPro, TierTeams:
		return tier, nil
	default:
		return "", fmt.Errorf("%w: unknown plan %q", ErrInvalidInput, raw)
	}
}

func ParsePlanStatus(raw string) (PlanStatus, error) {
	switch status := PlanStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case "":
		return "", nil
	case StatusActive, StatusCancellationPending, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown plan status %q", ErrInvalidInput, raw)
	}
}

func ParseBillingInterval(raw string) (BillingInterval, error) {
	switch interval := BillingInterval(strings.ToLower(strings.TrimSpace(raw))); interval {
	case IntervalMonthly, IntervalAnnual:
		return interval, nil
	case "":
		return IntervalMonthly, nil
	default:
		return "", fmt.Errorf("%w: unknown billing interval %q", ErrInvalidInput, raw)
	}
}
