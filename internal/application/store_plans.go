package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) UpgradeToProPlan(ctx context.Context, plan domain.ProPlan) error {
	return s.mutate(ctx, "upgrade to pro plan", func(tx *txn) error {
		return tx.upgradeToPro(plan)
	})
}

// UpgradePro changes the tier of an existing Pro subscription. It resets the
// balance and cycle like a new subscription but logs no transaction.
func (s *Store) UpgradePro(ctx context.Context, plan domain.ProPlan) error {
	return s.mutate(ctx, "upgrade pro plan", func(tx *txn) error {
		return tx.changeProTier(plan)
	})
}

func (s *Store) UpgradeToTeamsPlan(ctx context.Context, plan domain.TeamsPlan) error {
	return s.mutate(ctx, "upgrade to teams plan", func(tx *txn) error {
		return tx.upgradeToTeams(plan)
	})
}

func (s *Store) UpdateTeamPlanAndSeats(ctx context.Context, planName string, monthlyCredits int64, price decimal.Decimal, seats int) error {
	return s.mutate(ctx, "update team plan and seats", func(tx *txn) error {
		return tx.changeTeamPlan(planName, monthlyCredits, &seats)
	})
}

func (s *Store) UpdateTeamPlanOnly(ctx context.Context, planName string, monthlyCredits int64, price decimal.Decimal) error {
	return s.mutate(ctx, "update team plan", func(tx *txn) error {
		return tx.changeTeamPlan(planName, monthlyCredits, nil)
	})
}

// UpdateTeamSeatsOnly changes capacity without touching the pool or cycle. A
// team waiting on cancellation is brought back to active.
func (s *Store) UpdateTeamSeatsOnly(ctx context.Context, seats int) error {
	return s.mutate(ctx, "update team seats", func(tx *txn) error {
		account, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		if err := domain.ValidateSeats(seats, tx.pricing.MinTeamSeats, len(team.Members)); err != nil {
			return err
		}
		team.Seats = seats
		account.Plan = team
		if account.Status() == domain.StatusCancellationPending {
			account.PlanStatus = domain.StatusActive
			account.CancelledAt = zeroTime
		}
		tx.put(account)
		return nil
	})
}

func (s *Store) UpdateTeamSeats(ctx context.Context, seats int) error {
	return s.mutate(ctx, "set team seats", func(tx *txn) error {
		account, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		if err := domain.ValidateSeats(seats, tx.pricing.MinTeamSeats, len(team.Members)); err != nil {
			return err
		}
		team.Seats = seats
		account.Plan = team
		tx.put(account)
		return nil
	})
}

// UpdateTeamPlan replaces the team payload wholesale after checking the
// roster invariants.
func (s *Store) UpdateTeamPlan(ctx context.Context, plan domain.TeamsPlan) error {
	return s.mutate(ctx, "set team plan", func(tx *txn) error {
		account, _, err := tx.currentTeam()
		if err != nil {
			return err
		}
		if err := plan.Validate(tx.pricing.MinTeamSeats); err != nil {
			return err
		}
		account.Plan = plan.Clone()
		tx.put(account)
		return nil
	})
}

func (tx *txn) upgradeToPro(plan domain.ProPlan) error {
	account, err := tx.current()
	if err != nil {
		return err
	}
	if account.Tier() == domain.TierTeams {
		return fmt.Errorf("%w: leave the team plan before subscribing to pro", domain.ErrWrongPlan)
	}
	if err := tx.installPro(&account, plan); err != nil {
		return err
	}
	tx.logCredits(&account, domain.TxPlanChange, plan.MonthlyCredits, "Purchased")
	tx.put(account)
	return nil
}

func (tx *txn) changeProTier(plan domain.ProPlan) error {
	account, err := tx.current()
	if err != nil {
		return err
	}
	if account.Tier() != domain.TierPro {
		return fmt.Errorf("%w: %s is on the %s plan", domain.ErrWrongPlan, account.Email, account.Tier())
	}
	if err := tx.installPro(&account, plan); err != nil {
		return err
	}
	tx.put(account)
	return nil
}

func (tx *txn) installPro(account *domain.Account, plan domain.ProPlan) error {
	interval, err := domain.ParseBillingInterval(string(plan.BillingInterval))
	if err != nil {
		return err
	}
	plan.BillingInterval = interval
	if err := plan.Validate(); err != nil {
		return err
	}
	account.Plan = plan
	account.Credits = plan.MonthlyCredits
	account.CreditsUsed = 0
	account.ExtraCredits = 0
	tx.startCycle(account, interval)
	return nil
}

// upgradeToTeams moves the caller onto a new team. Unused Pro credits and
// extras move into the pool unless the Pro plan was already cancelled.
func (tx *txn) upgradeToTeams(plan domain.TeamsPlan) error {
	account, err := tx.current()
	if err != nil {
		return err
	}
	if account.Tier() == domain.TierTeams {
		return fmt.Errorf("%w: %s already runs a team", domain.ErrWrongPlan, account.Email)
	}
	if strings.TrimSpace(plan.PlanName) == "" {
		return fmt.Errorf("%w: plan name is required", domain.ErrInvalidInput)
	}
	if plan.MonthlyCredits < 0 || plan.SharedCredits < 0 {
		return fmt.Errorf("%w: credits must not be negative", domain.ErrInvalidAmount)
	}
	if err := domain.ValidateSeats(plan.Seats, tx.pricing.MinTeamSeats, 1); err != nil {
		return err
	}

	var carried, extras int64
	if account.Status() != domain.StatusCancelled {
		if _, ok := account.Pro(); ok {
			carried = account.Available()
		}
		extras = max(0, account.ExtraCredits)
	}
	granted := plan.SharedCredits
	transferred := carried + extras

	team := plan.Clone()
	team.SharedCredits = granted + transferred
	team.SharedCreditsUsed = 0
	team.ExtraCredits = extras
	team.Members = []domain.TeamMember{{
		Email:    account.Email,
		Role:     domain.RoleOwner,
		Status:   domain.MemberActive,
		JoinedAt: tx.now,
	}}
	team.BillingAdmins = nil
	for _, admin := range plan.BillingAdmins {
		if admin.Email == account.Email {
			continue
		}
		team.BillingAdmins = append(team.BillingAdmins, admin)
	}
	if err := team.Validate(tx.pricing.MinTeamSeats); err != nil {
		return err
	}

	account.Plan = team
	account.Credits = 0
	account.CreditsUsed = 0
	account.ExtraCredits = 0
	tx.startCycle(&account, domain.IntervalMonthly)

	tx.logCredits(&account, domain.TxPlanChange, granted, "Purchased")
	if transferred > 0 {
		tx.logCredits(&account, domain.TxTransferred, transferred, "Transferred")
	}
	tx.put(account)
	return nil
}

// changeTeamPlan switches the team tier. The unspent pool is kept on top of
// the new monthly grant and a fresh cycle starts. seats is optional.
func (tx *txn) changeTeamPlan(planName string, monthlyCredits int64, seats *int) error {
	account, team, err := tx.currentTeam()
	if err != nil {
		return err
	}
	if strings.TrimSpace(planName) == "" {
		return fmt.Errorf("%w: plan name is required", domain.ErrInvalidInput)
	}
	if monthlyCredits < 0 {
		return fmt.Errorf("%w: monthly credits must not be negative", domain.ErrInvalidAmount)
	}
	if seats != nil {
		if err := domain.ValidateSeats(*seats, tx.pricing.MinTeamSeats, len(team.Members)); err != nil {
			return err
		}
		team.Seats = *seats
	}

	team.PlanName = planName
	team.SharedCredits = monthlyCredits + team.Available()
	team.SharedCreditsUsed = 0
	team.MonthlyCredits = monthlyCredits
	account.Plan = team
	tx.startCycle(&account, domain.IntervalMonthly)
	tx.put(account)
	return nil
}
