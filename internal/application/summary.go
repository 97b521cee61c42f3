package application

import (
	"time"

	"github.com/bnema/planctl/internal/domain"
)

const lowCreditPercent = 10

// Summary is the read model the CLI and HTTP API render.
type Summary struct {
	Email            string            `json:"email"`
	LoggedInAs       string            `json:"logged_in_as"`
	Tier             domain.PlanTier   `json:"tier"`
	Status           domain.PlanStatus `json:"status"`
	PlanName         string            `json:"plan_name,omitempty"`
	TeamName         string            `json:"team_name,omitempty"`
	BillingInterval  string            `json:"billing_interval,omitempty"`
	TotalCredits     int64             `json:"total_credits"`
	UsedCredits      int64             `json:"used_credits"`
	RemainingCredits int64             `json:"remaining_credits"`
	ExtraCredits     int64             `json:"extra_credits"`
	BillingCycleEnd  *time.Time        `json:"billing_cycle_end,omitempty"`
	DaysUntilExpiry  int               `json:"days_until_expiry"`
	CyclePassed      bool              `json:"cycle_passed"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty"`
	Seats            int               `json:"seats,omitempty"`
	SeatsUsed        int               `json:"seats_used,omitempty"`
	Role             domain.MemberRole `json:"role,omitempty"`
	BillingAdminView bool              `json:"billing_admin_view"`
	LowCredits       bool              `json:"low_credits"`
	Invoices         int               `json:"invoices"`
	Transactions     int               `json:"transactions"`
}

// Summary describes the account being viewed: the impersonated one if set,
// otherwise the logged-in one.
func (s *Store) Summary() (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.CurrentUser == "" {
		return Summary{}, domain.ErrNoCurrentUser
	}
	viewer := s.viewingAsEmail()
	current := s.state.Users[s.state.CurrentUser]

	if s.viewingAsBillingAdmin() {
		team, _ := current.Teams()
		summary := summarize(current, s.clock.Now())
		summary.Email = viewer
		summary.LoggedInAs = current.Email
		summary.BillingAdminView = true
		summary.Role = ""
		summary.TotalCredits, summary.UsedCredits, summary.RemainingCredits = 0, 0, 0
		summary.LowCredits = false
		summary.Seats, summary.SeatsUsed = team.Seats, len(team.Members)
		return summary, nil
	}

	account, ok := s.state.Users[viewer]
	if !ok {
		return Summary{}, domain.ErrAccountNotFound
	}
	summary := summarize(account, s.clock.Now())
	summary.LoggedInAs = current.Email
	if team, ok := current.Teams(); ok && viewer != current.Email {
		if member, ok := team.Member(viewer); ok {
			summary.Role = member.Role
		}
	}
	return summary, nil
}

func summarize(account domain.Account, now time.Time) Summary {
	summary := Summary{
		Email:           account.Email,
		Tier:            account.Tier(),
		Status:          account.Status(),
		DaysUntilExpiry: domain.DaysUntilExpiry(account.BillingCycleEnd, now),
		CyclePassed:     domain.IsBillingCyclePassed(account.BillingCycleEnd, now),
		Invoices:        len(account.Invoices),
		Transactions:    len(account.CreditTransactions),
	}
	if !account.BillingCycleEnd.IsZero() {
		end := account.BillingCycleEnd
		summary.BillingCycleEnd = &end
	}
	if !account.CancelledAt.IsZero() {
		at := account.CancelledAt
		summary.CancelledAt = &at
	}

	switch plan := account.Plan.(type) {
	case domain.TeamsPlan:
		summary.PlanName = plan.PlanName
		summary.TeamName = plan.TeamName
		summary.BillingInterval = string(domain.IntervalMonthly)
		summary.TotalCredits = plan.SharedCredits
		summary.UsedCredits = plan.SharedCreditsUsed
		summary.RemainingCredits = plan.Available()
		summary.ExtraCredits = plan.ExtraCredits
		summary.Seats = plan.Seats
		summary.SeatsUsed = len(plan.Members)
		if member, ok := plan.Member(account.Email); ok {
			summary.Role = member.Role
		}
	default:
		if pro, ok := plan.(domain.ProPlan); ok {
			summary.PlanName = pro.Name
			summary.BillingInterval = string(pro.BillingInterval)
		}
		summary.TotalCredits = account.Credits
		summary.UsedCredits = account.CreditsUsed
		summary.RemainingCredits = account.Available()
		summary.ExtraCredits = account.ExtraCredits
	}
	summary.LowCredits = summary.TotalCredits > 0 && summary.RemainingCredits*100 < summary.TotalCredits*lowCreditPercent
	return summary
}
