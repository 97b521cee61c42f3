package application

import (
	"context"
	"fmt"

	"github.com/bnema/planctl/internal/domain"
)

// CancelProPlan stops renewal. Credits stay spendable until the cycle is
// processed.
func (s *Store) CancelProPlan(ctx context.Context) error {
	return s.mutate(ctx, "cancel pro plan", func(tx *txn) error {
		account, err := tx.currentWithTier(domain.TierPro)
		if err != nil {
			return err
		}
		if account.Status() == domain.StatusCancelled {
			return fmt.Errorf("%w: pro plan is already cancelled", domain.ErrWrongStatus)
		}
		account.PlanStatus = domain.StatusCancelled
		account.CancelledAt = tx.now
		tx.put(account)
		return nil
	})
}

// CancelTeamsPlan gives members notice: the team moves to
// cancellation-pending rather than straight to cancelled.
func (s *Store) CancelTeamsPlan(ctx context.Context) error {
	return s.mutate(ctx, "cancel teams plan", func(tx *txn) error {
		account, err := tx.currentWithTier(domain.TierTeams)
		if err != nil {
			return err
		}
		if account.Status() != domain.StatusActive {
			return fmt.Errorf("%w: team is %s", domain.ErrWrongStatus, account.Status())
		}
		account.PlanStatus = domain.StatusCancellationPending
		account.CancelledAt = tx.now
		tx.put(account)
		return nil
	})
}

// ReactivateProPlan undoes a cancellation. The cycle end is left as it was.
func (s *Store) ReactivateProPlan(ctx context.Context) error {
	return s.mutate(ctx, "reactivate pro plan", func(tx *txn) error {
		account, err := tx.currentWithTier(domain.TierPro)
		if err != nil {
			return err
		}
		if account.Status() != domain.StatusCancelled {
			return fmt.Errorf("%w: pro plan is %s", domain.ErrWrongStatus, account.Status())
		}
		account.PlanStatus = domain.StatusActive
		account.CancelledAt = zeroTime
		tx.put(account)
		return nil
	})
}

func (s *Store) ReactivateTeamsPlan(ctx context.Context) error {
	return s.mutate(ctx, "reactivate teams plan", func(tx *txn) error {
		return tx.reactivateTeams()
	})
}

func (tx *txn) reactivateTeams() error {
	account, team, err := tx.currentTeam()
	if err != nil {
		return err
	}
	switch account.Status() {
	case domain.StatusCancellationPending:
		account.PlanStatus = domain.StatusActive
		account.CancelledAt = zeroTime
	case domain.StatusCancelled:
		team.SharedCredits = team.MonthlyCredits
		team.SharedCreditsUsed = 0
		team.ExtraCredits = 0
		account.Plan = team
		tx.startCycle(&account, domain.IntervalMonthly)

		amount, _ := tx.pricing.TeamsReactivationCost(team.MonthlyCredits, team.Seats)
		tx.addInvoice(&account, amount, fmt.Sprintf("%s with %d seats - New billing cycle", team.PlanName, team.Seats), domain.InvoicePaid)
	default:
		return fmt.Errorf("%w: team is %s", domain.ErrWrongStatus, account.Status())
	}
	tx.put(account)
	return nil
}

// ProcessBillingCycle applies the end of a cancelled cycle. Pro accounts drop
// to free keeping at most MaxFreeCreditsOnDowngrade credits; teams lose their
// whole pool but keep the team. An empty email targets the current user.
func (s *Store) ProcessBillingCycle(ctx context.Context, email string) error {
	return s.mutate(ctx, "process billing cycle", func(tx *txn) error {
		var (
			account domain.Account
			err     error
		)
		if email == "" {
			account, err = tx.current()
		} else {
			var normalized string
			if normalized, err = NormalizeEmail(email); err == nil {
				account, err = tx.account(normalized)
			}
		}
		if err != nil {
			return err
		}
		if account.Status() != domain.StatusCancelled {
			return fmt.Errorf("%w: %s is %s", domain.ErrWrongStatus, account.Email, account.Status())
		}

		switch account.Tier() {
		case domain.TierPro:
			tx.downgradeToFree(&account)
		case domain.TierTeams:
			tx.expireTeamPool(&account)
		default:
			return fmt.Errorf("%w: nothing to process on the free plan", domain.ErrWrongPlan)
		}
		tx.put(account)
		return nil
	})
}

func (tx *txn) downgradeToFree(account *domain.Account) {
	kept, expired := domain.ProDowngradeCredits(account.Credits-account.CreditsUsed, tx.pricing.MaxFreeCreditsOnDowngrade)

	account.Plan = domain.FreePlan{}
	account.Credits = kept
	account.CreditsUsed = 0
	account.ExtraCredits = 0
	account.BillingCycle = zeroTime
	account.BillingCycleEnd = zeroTime
	account.PlanStatus = ""
	account.CancelledAt = zeroTime

	if kept > 0 {
		tx.logCredits(account, domain.TxRollover, kept, "Rollover")
	}
	if expired > 0 {
		tx.logCredits(account, domain.TxExpired, -expired, "Expired")
	}
}

func (tx *txn) expireTeamPool(account *domain.Account) {
	team, _ := account.Teams()
	expired := team.Available()

	team.SharedCredits = 0
	team.SharedCreditsUsed = 0
	team.ExtraCredits = 0
	account.Plan = team
	account.PlanStatus = ""
	account.CancelledAt = zeroTime

	if expired > 0 {
		tx.logCredits(account, domain.TxExpired, -expired, "Expired")
	}
}

// ProcessBillingCycleTeams ends the notice period of a cancellation-pending
// team: the pool is marked fully used and the team becomes cancelled.
func (s *Store) ProcessBillingCycleTeams(ctx context.Context) error {
	return s.mutate(ctx, "process teams billing cycle", func(tx *txn) error {
		account, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		if account.Status() != domain.StatusCancellationPending {
			return fmt.Errorf("%w: team is %s", domain.ErrWrongStatus, account.Status())
		}
		team.SharedCredits = team.MonthlyCredits
		team.SharedCreditsUsed = team.MonthlyCredits
		team.ExtraCredits = 0
		account.Plan = team
		account.PlanStatus = domain.StatusCancelled
		tx.put(account)
		return nil
	})
}

// DeleteTeam dissolves the current user's team. Every member account that
// exists, the holder included, becomes free with no credits and receives a
// copy of the team's invoices.
func (s *Store) DeleteTeam(ctx context.Context) error {
	return s.mutate(ctx, "delete team", func(tx *txn) error {
		holder, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		invoices := append([]domain.Invoice(nil), holder.Invoices...)

		emails := make([]string, 0, len(team.Members)+1)
		emails = append(emails, holder.Email)
		for _, member := range team.Members {
			if member.Email != holder.Email {
				emails = append(emails, member.Email)
			}
		}

		for _, email := range emails {
			account, err := tx.account(email)
			if err != nil {
				continue
			}
			if email != holder.Email {
				if _, ownTeam := account.Teams(); ownTeam {
					continue
				}
				account.Invoices = append(account.Invoices, invoices...)
			}
			dissolve(&account)
			tx.put(account)
		}
		return nil
	})
}

func dissolve(account *domain.Account) {
	account.Plan = domain.FreePlan{}
	account.Credits = 0
	account.CreditsUsed = 0
	account.ExtraCredits = 0
	account.BillingCycle = zeroTime
	account.BillingCycleEnd = zeroTime
	account.PlanStatus = ""
	account.CancelledAt = zeroTime
}

func (tx *txn) currentWithTier(tier domain.PlanTier) (domain.Account, error) {
	account, err := tx.current()
	if err != nil {
		return domain.Account{}, err
	}
	if account.Tier() != tier {
		return domain.Account{}, fmt.Errorf("%w: %s is on the %s plan, not %s", domain.ErrWrongPlan, account.Email, account.Tier(), tier)
	}
	return account, nil
}
