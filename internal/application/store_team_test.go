package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterStore(t *testing.T) *Store {
	t.Helper()

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	members := []domain.TeamMember{
		{Email: "a@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: jan1},
		{Email: "b@x.io", Role: domain.RoleMember, Status: domain.MemberActive, JoinedAt: jan1.AddDate(0, 1, 0)},
		{Email: "c@x.io", Role: domain.RoleMember, Status: domain.MemberPending, JoinedAt: jan1.AddDate(0, 2, 0)},
	}
	team := starterTeam(members...)
	team.Seats = 4

	memberB := proAccount("b@x.io", 1000, 100, 0, domain.StatusActive)
	memberC := domain.NewAccount("c@x.io", 0)
	store, _, _ := newTestStore(t, teamAccount("a@x.io", team, domain.StatusActive), memberB, memberC)
	return store
}

func currentRoster(t *testing.T, store *Store) domain.TeamsPlan {
	t.Helper()
	return mustTeam(t, mustCurrent(t, store))
}

func TestRemoveOwnerReassignsToEarliestMember(t *testing.T) {
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	team := starterTeam(
		domain.TeamMember{Email: "a@x.io", Role: domain.RoleMember, Status: domain.MemberActive, JoinedAt: jan1.AddDate(0, 2, 0)},
		domain.TeamMember{Email: "b@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: jan1},
		domain.TeamMember{Email: "c@x.io", Role: domain.RoleMember, Status: domain.MemberPending, JoinedAt: jan1.AddDate(0, 1, 0)},
	)
	team.Seats = 4
	store, _, _ := newTestStore(t, teamAccount("a@x.io", team, domain.StatusActive), domain.NewAccount("b@x.io", 0))

	require.NoError(t, store.RemoveTeamMember(context.Background(), "b@x.io"))

	roster := currentRoster(t, store)
	require.Len(t, roster.Members, 2)
	assert.True(t, roster.IsOwner("c@x.io"))
	assert.False(t, roster.IsOwner("a@x.io"))
	c, _ := roster.Member("c@x.io")
	assert.Equal(t, domain.MemberPending, c.Status)
	assert.Equal(t, domain.TierTeams, mustCurrent(t, store).Tier(), "holder keeps the team")
}

func TestHolderCannotLeaveTheirRoster(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()

	tests := map[string]func() error{
		"remove":             func() error { return store.RemoveTeamMember(ctx, "A@x.io") },
		"convert to billing": func() error { return store.ConvertMemberToBillingAdmin(ctx, "a@x.io") },
	}
	for name, call := range tests {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, domain.IsPrecondition(err))
			assert.ErrorIs(t, err, domain.ErrTeamHolder)
		})
	}

	holder := mustCurrent(t, store)
	assert.Equal(t, domain.TierTeams, holder.Tier())
	roster := mustTeam(t, holder)
	assert.Len(t, roster.Members, 3)
	assert.Empty(t, roster.BillingAdmins)
	assert.True(t, roster.IsOwner("a@x.io"))
}

func TestRemoveMemberResetsTheirAccount(t *testing.T) {
	store := rosterStore(t)

	require.NoError(t, store.RemoveTeamMember(context.Background(), "b@x.io"))

	b := mustAccount(t, store, "b@x.io")
	assert.Equal(t, domain.TierFree, b.Tier())
	assert.Equal(t, int64(150), b.Credits)
	assert.Zero(t, b.CreditsUsed)
	assert.True(t, b.BillingCycleEnd.IsZero())
	assert.Empty(t, b.PlanStatus)

	err := store.RemoveTeamMember(context.Background(), "b@x.io")
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestAddTeamMemberEnforcesSeatLimit(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()
	limit := int64(250)

	require.NoError(t, store.AddTeamMember(ctx, "d@x.io", &limit))
	d, ok := currentRoster(t, store).Member("d@x.io")
	require.True(t, ok)
	assert.Equal(t, domain.RoleMember, d.Role)
	assert.Equal(t, domain.MemberPending, d.Status)
	assert.Equal(t, testNow, d.JoinedAt)
	require.NotNil(t, d.CreditLimit)
	assert.Equal(t, int64(250), *d.CreditLimit)

	err := store.AddTeamMember(ctx, "e@x.io", nil)
	require.ErrorIs(t, err, domain.ErrSeatLimit)
	assert.Len(t, currentRoster(t, store).Members, 4)
}

func TestMembersAndBillingAdminsStayDisjoint(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()

	require.ErrorIs(t, store.InviteBillingAdmin(ctx, "b@x.io"), domain.ErrAlreadyOnTeam)
	require.NoError(t, store.InviteBillingAdmin(ctx, "fin@x.io"))
	require.ErrorIs(t, store.AddTeamMember(ctx, "fin@x.io", nil), domain.ErrAlreadyOnTeam)

	require.NoError(t, store.ConvertMemberToBillingAdmin(ctx, "c@x.io"))
	team := currentRoster(t, store)
	_, isMember := team.Member("c@x.io")
	admin, isAdmin := team.BillingAdmin("c@x.io")
	assert.False(t, isMember)
	require.True(t, isAdmin)
	assert.Equal(t, domain.MemberActive, admin.Status)
	assert.NoError(t, team.Validate(2))
}

func TestOwnershipOperations(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()

	require.NoError(t, store.MakeTeamOwner(ctx, "b@x.io"))
	team := currentRoster(t, store)
	assert.True(t, team.IsOwner("a@x.io"))
	assert.True(t, team.IsOwner("b@x.io"))

	require.NoError(t, store.TransferTeamOwnership(ctx, "c@x.io"))
	team = currentRoster(t, store)
	assert.False(t, team.IsOwner("a@x.io"))
	assert.True(t, team.IsOwner("b@x.io"))
	assert.True(t, team.IsOwner("c@x.io"))

	err := store.TransferTeamOwnership(ctx, "b@x.io")
	require.ErrorIs(t, err, domain.ErrNotTeamOwner, "caller is no longer an owner")
	require.ErrorIs(t, store.MakeTeamOwner(ctx, "zed@x.io"), domain.ErrMemberNotFound)
}

func TestMarkMemberAsActiveIsIdempotent(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()

	require.NoError(t, store.MarkMemberAsActive(ctx, "c@x.io"))
	once := store.Accounts()
	require.NoError(t, store.MarkMemberAsActive(ctx, "c@x.io"))

	assert.Equal(t, once, store.Accounts())
	c, _ := currentRoster(t, store).Member("c@x.io")
	assert.Equal(t, domain.MemberActive, c.Status)
	require.ErrorIs(t, store.MarkMemberAsActive(ctx, "zed@x.io"), domain.ErrMemberNotFound)
}

func TestBillingAdminInviteFlow(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()

	require.NoError(t, store.InviteBillingAdmin(ctx, "fin@x.io"))
	admin, ok := currentRoster(t, store).BillingAdmin("fin@x.io")
	require.True(t, ok)
	assert.Equal(t, domain.MemberPending, admin.Status)
	assert.Equal(t, testNow, admin.InvitedAt)

	require.NoError(t, store.AcceptBillingAdminInvite(ctx, "fin@x.io"))
	admin, _ = currentRoster(t, store).BillingAdmin("fin@x.io")
	assert.Equal(t, domain.MemberActive, admin.Status)
	assert.Equal(t, testNow, admin.AcceptedAt)

	require.NoError(t, store.MarkBillingAdminAsActive(ctx, "fin@x.io"))
	require.NoError(t, store.RemoveBillingAdmin(ctx, "fin@x.io"))
	assert.Empty(t, currentRoster(t, store).BillingAdmins)
	require.ErrorIs(t, store.AcceptBillingAdminInvite(ctx, "fin@x.io"), domain.ErrBillingAdminNotFound)
}

func TestConvertBillingAdminToMemberConsumesSeat(t *testing.T) {
	store := rosterStore(t)
	ctx := context.Background()

	require.NoError(t, store.InviteBillingAdmin(ctx, "fin@x.io"))
	require.NoError(t, store.InviteBillingAdmin(ctx, "ops@x.io"))

	require.NoError(t, store.ConvertBillingAdminToMember(ctx, "fin@x.io", nil))
	fin, ok := currentRoster(t, store).Member("fin@x.io")
	require.True(t, ok)
	assert.Equal(t, domain.MemberActive, fin.Status)
	assert.Len(t, currentRoster(t, store).Members, 4)

	err := store.ConvertBillingAdminToMember(ctx, "ops@x.io", nil)
	require.ErrorIs(t, err, domain.ErrSeatLimit)
	_, stillAdmin := currentRoster(t, store).BillingAdmin("ops@x.io")
	assert.True(t, stillAdmin)
}
