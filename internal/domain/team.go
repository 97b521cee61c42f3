package domain

import (
	"fmt"
	"time"
)

type MemberRole string
type MemberStatus string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"

	MemberPending MemberStatus = "pending"
	MemberActive  MemberStatus = "active"
)

type TeamMember struct {
	Email       string       `json:"email"`
	CreditLimit *int64       `json:"credit_limit,omitempty"`
	Role        MemberRole   `json:"role"`
	Status      MemberStatus `json:"status"`
	JoinedAt    time.Time    `json:"joined_at"`
}

type BillingAdmin struct {
	Email      string       `json:"email"`
	Status     MemberStatus `json:"status"`
	InvitedAt  time.Time    `json:"invited_at"`
	AcceptedAt time.Time    `json:"accepted_at"`
}

func (m TeamMember) clone() TeamMember {
	if m.CreditLimit != nil {
		limit := *m.CreditLimit
		m.CreditLimit = &limit
	}
	return m
}

func (t TeamsPlan) MemberIndex(email string) int {
	for i, member := range t.Members {
		if member.Email == email {
			return i
		}
	}
	return -1
}

func (t TeamsPlan) BillingAdminIndex(email string) int {
	for i, admin := range t.BillingAdmins {
		if admin.Email == email {
			return i
		}
	}
	return -1
}

func (t TeamsPlan) Member(email string) (TeamMember, bool) {
	if i := t.MemberIndex(email); i >= 0 {
		return t.Members[i], true
	}
	return TeamMember{}, false
}

func (t TeamsPlan) BillingAdmin(email string) (BillingAdmin, bool) {
	if i := t.BillingAdminIndex(email); i >= 0 {
		return t.BillingAdmins[i], true
	}
	return BillingAdmin{}, false
}

func (t TeamsPlan) IsOwner(email string) bool {
	member, ok := t.Member(email)
	return ok && member.Role == RoleOwner
}

func (t TeamsPlan) OwnerCount() int {
	n := 0
	for _, member := range t.Members {
		if member.Role == RoleOwner {
			n++
		}
	}
	return n
}

func (t TeamsPlan) FreeSeats() int {
	return max(0, t.Seats-len(t.Members))
}

// Validate checks the roster invariants: seat capacity, at least one owner
// while members exist, and members disjoint from billing admins.
func (t TeamsPlan) Validate(minSeats int) error {
	if err := ValidateSeats(t.Seats, minSeats, len(t.Members)); err != nil {
		return err
	}
	if len(t.Members) > 0 && t.OwnerCount() == 0 {
		return fmt.Errorf("%w: team has no owner", ErrNotTeamOwner)
	}
	seen := make(map[string]struct{}, len(t.Members)+len(t.BillingAdmins))
	for _, member := range t.Members {
		if _, ok := seen[member.Email]; ok {
			return fmt.Errorf("%w: %s", ErrAlreadyOnTeam, member.Email)
		}
		seen[member.Email] = struct{}{}
	}
	for _, admin := range t.BillingAdmins {
		if _, ok := seen[admin.Email]; ok {
			return fmt.Errorf("%w: %s", ErrAlreadyOnTeam, admin.Email)
		}
		seen[admin.Email] = struct{}{}
	}
	return nil
}

func ValidateSeats(seats, minSeats, members int) error {
	if seats < minSeats {
		return fmt.Errorf("%w: %d seats, minimum is %d", ErrInvalidSeats, seats, minSeats)
	}
	if seats < members {
		return fmt.Errorf("%w: %d seats cannot hold %d members", ErrSeatLimit, seats, members)
	}
	return nil
}

func (t *TeamsPlan) onTeam(email string) bool {
	return t.MemberIndex(email) >= 0 || t.BillingAdminIndex(email) >= 0
}

func (t *TeamsPlan) AddMember(email string, creditLimit *int64, now time.Time) error {
	if t.onTeam(email) {
		return fmt.Errorf("%w: %s", ErrAlreadyOnTeam, email)
	}
	if t.FreeSeats() == 0 {
		return fmt.Errorf("%w: %d of %d seats taken", ErrSeatLimit, len(t.Members), t.Seats)
	}
	role := RoleMember
	if len(t.Members) == 0 {
		role = RoleOwner
	}
	t.Members = append(t.Members, TeamMember{
		Email:       email,
		CreditLimit: creditLimit,
		Role:        role,
		Status:      MemberPending,
		JoinedAt:    now,
	})
	return nil
}

// RemoveMember drops a member. When the last owner leaves and others remain,
// the member with the earliest JoinedAt becomes owner; ties keep roster order.
func (t *TeamsPlan) RemoveMember(email string) (TeamMember, error) {
	i := t.MemberIndex(email)
	if i < 0 {
		return TeamMember{}, fmt.Errorf("%w: %s", ErrMemberNotFound, email)
	}
	removed := t.Members[i]
	t.Members = append(t.Members[:i:i], t.Members[i+1:]...)

	if removed.Role == RoleOwner && len(t.Members) > 0 && t.OwnerCount() == 0 {
		earliest := 0
		for j, member := range t.Members {
			if member.JoinedAt.Before(t.Members[earliest].JoinedAt) {
				earliest = j
			}
		}
		t.Members[earliest].Role = RoleOwner
	}
	return removed, nil
}

func (t *TeamsPlan) PromoteOwner(email string) error {
	i := t.MemberIndex(email)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, email)
	}
	t.Members[i].Role = RoleOwner
	return nil
}

// TransferOwnership demotes from and promotes to. from must be an owner.
func (t *TeamsPlan) TransferOwnership(from, to string) error {
	fromIdx := t.MemberIndex(from)
	if fromIdx < 0 || t.Members[fromIdx].Role != RoleOwner {
		return fmt.Errorf("%w: %s", ErrNotTeamOwner, from)
	}
	toIdx := t.MemberIndex(to)
	if toIdx < 0 {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, to)
	}
	if fromIdx == toIdx {
		return nil
	}
	t.Members[fromIdx].Role = RoleMember
	t.Members[toIdx].Role = RoleOwner
	return nil
}

func (t *TeamsPlan) ActivateMember(email string) error {
	i := t.MemberIndex(email)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, email)
	}
	t.Members[i].Status = MemberActive
	return nil
}

func (t *TeamsPlan) InviteBillingAdmin(email string, now time.Time) error {
	if t.onTeam(email) {
		return fmt.Errorf("%w: %s", ErrAlreadyOnTeam, email)
	}
	t.BillingAdmins = append(t.BillingAdmins, BillingAdmin{
		Email:     email,
		Status:    MemberPending,
		InvitedAt: now,
	})
	return nil
}

func (t *TeamsPlan) RemoveBillingAdmin(email string) error {
	i := t.BillingAdminIndex(email)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBillingAdminNotFound, email)
	}
	t.BillingAdmins = append(t.BillingAdmins[:i:i], t.BillingAdmins[i+1:]...)
	return nil
}

func (t *TeamsPlan) AcceptBillingAdmin(email string, now time.Time) error {
	i := t.BillingAdminIndex(email)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBillingAdminNotFound, email)
	}
	t.BillingAdmins[i].Status = MemberActive
	t.BillingAdmins[i].AcceptedAt = now
	return nil
}

func (t *TeamsPlan) ActivateBillingAdmin(email string) error {
	i := t.BillingAdminIndex(email)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBillingAdminNotFound, email)
	}
	t.BillingAdmins[i].Status = MemberActive
	return nil
}

// MemberToBillingAdmin frees the member's seat. Ownership is reassigned the
// same way RemoveMember does it.
func (t *TeamsPlan) MemberToBillingAdmin(email string, now time.Time) error {
	if _, err := t.RemoveMember(email); err != nil {
		return err
	}
	t.BillingAdmins = append(t.BillingAdmins, BillingAdmin{
		Email:      email,
		Status:     MemberActive,
		InvitedAt:  now,
		AcceptedAt: now,
	})
	return nil
}

func (t *TeamsPlan) BillingAdminToMember(email string, creditLimit *int64, now time.Time) error {
	i := t.BillingAdminIndex(email)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBillingAdminNotFound, email)
	}
	if t.FreeSeats() == 0 {
		return fmt.Errorf("%w: %d of %d seats taken", ErrSeatLimit, len(t.Members), t.Seats)
	}
	t.BillingAdmins = append(t.BillingAdmins[:i:i], t.BillingAdmins[i+1:]...)
	role := RoleMember
	if len(t.Members) == 0 {
		role = RoleOwner
	}
	t.Members = append(t.Members, TeamMember{
		Email:       email,
		CreditLimit: creditLimit,
		Role:        role,
		Status:      MemberActive,
		JoinedAt:    now,
	})
	return nil
}
