package application

import (
	"context"
	"fmt"

	"github.com/bnema/planctl/internal/domain"
)

// AddTeamMember adds a pending member. The seat count is enforced here.
func (s *Store) AddTeamMember(ctx context.Context, email string, creditLimit *int64) error {
	return s.mutateTeam(ctx, "add team member", email, func(tx *txn, team *domain.TeamsPlan, email string) error {
		return team.AddMember(email, creditLimit, tx.now)
	})
}

// RemoveTeamMember drops the member and resets their own account to a fresh
// free account. Accounts that run their own team are left alone. The holder
// cannot leave; the team has to be deleted instead.
func (s *Store) RemoveTeamMember(ctx context.Context, email string) error {
	return s.mutate(ctx, "remove team member", func(tx *txn) error {
		normalized, err := NormalizeEmail(email)
		if err != nil {
			return err
		}
		holder, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		if err := holderStays(tx, normalized); err != nil {
			return err
		}
		if _, err := team.RemoveMember(normalized); err != nil {
			return err
		}
		holder.Plan = team
		tx.put(holder)

		member, err := tx.account(normalized)
		if err != nil {
			return nil
		}
		if _, ownTeam := member.Teams(); ownTeam {
			return nil
		}
		member.Plan = domain.FreePlan{}
		member.Credits = tx.pricing.InitialFreeCredits
		member.CreditsUsed = 0
		member.ExtraCredits = 0
		member.BillingCycle = zeroTime
		member.BillingCycleEnd = zeroTime
		member.PlanStatus = ""
		member.CancelledAt = zeroTime
		tx.put(member)
		return nil
	})
}

// MakeTeamOwner promotes a member without demoting anyone; a team may have
// several owners.
func (s *Store) MakeTeamOwner(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "make team owner", email, func(_ *txn, team *domain.TeamsPlan, email string) error {
		return team.PromoteOwner(email)
	})
}

// TransferTeamOwnership hands the caller's owner role to another member.
func (s *Store) TransferTeamOwnership(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "transfer team ownership", email, func(tx *txn, team *domain.TeamsPlan, email string) error {
		return team.TransferOwnership(tx.state.CurrentUser, email)
	})
}

func (s *Store) MarkMemberAsActive(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "mark member as active", email, func(_ *txn, team *domain.TeamsPlan, email string) error {
		return team.ActivateMember(email)
	})
}

func (s *Store) InviteBillingAdmin(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "invite billing admin", email, func(tx *txn, team *domain.TeamsPlan, email string) error {
		return team.InviteBillingAdmin(email, tx.now)
	})
}

func (s *Store) RemoveBillingAdmin(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "remove billing admin", email, func(_ *txn, team *domain.TeamsPlan, email string) error {
		return team.RemoveBillingAdmin(email)
	})
}

func (s *Store) AcceptBillingAdminInvite(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "accept billing admin invite", email, func(tx *txn, team *domain.TeamsPlan, email string) error {
		return team.AcceptBillingAdmin(email, tx.now)
	})
}

func (s *Store) MarkBillingAdminAsActive(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "mark billing admin as active", email, func(_ *txn, team *domain.TeamsPlan, email string) error {
		return team.ActivateBillingAdmin(email)
	})
}

// ConvertMemberToBillingAdmin frees the member's seat and lists them as an
// active billing admin.
func (s *Store) ConvertMemberToBillingAdmin(ctx context.Context, email string) error {
	return s.mutateTeam(ctx, "convert member to billing admin", email, func(tx *txn, team *domain.TeamsPlan, email string) error {
		if err := holderStays(tx, email); err != nil {
			return err
		}
		return team.MemberToBillingAdmin(email, tx.now)
	})
}

func (s *Store) ConvertBillingAdminToMember(ctx context.Context, email string, creditLimit *int64) error {
	return s.mutateTeam(ctx, "convert billing admin to member", email, func(tx *txn, team *domain.TeamsPlan, email string) error {
		return team.BillingAdminToMember(email, creditLimit, tx.now)
	})
}

// mutateTeam runs a roster edit against the current user's team.
func (s *Store) mutateTeam(ctx context.Context, op, email string, fn func(tx *txn, team *domain.TeamsPlan, email string) error) error {
	return s.mutate(ctx, op, func(tx *txn) error {
		normalized, err := NormalizeEmail(email)
		if err != nil {
			return err
		}
		holder, team, err := tx.currentTeam()
		if err != nil {
			return err
		}
		if err := fn(tx, &team, normalized); err != nil {
			return err
		}
		holder.Plan = team
		tx.put(holder)
		return nil
	})
}

// holderStays refuses changes that would take the team holder off their own
// roster.
func holderStays(tx *txn, email string) error {
	if email == tx.state.CurrentUser {
		return fmt.Errorf("%w: %s, delete the team instead", domain.ErrTeamHolder, email)
	}
	return nil
}
