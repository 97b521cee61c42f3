package application

import (
	"context"
	"testing"

	"github.com/bnema/planctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryForProAccount(t *testing.T) {
	store, _, _ := newTestStore(t, proAccount("a@x.io", 1000, 950, 0, domain.StatusActive))

	summary, err := store.Summary()
	require.NoError(t, err)

	assert.Equal(t, "a@x.io", summary.Email)
	assert.Equal(t, "a@x.io", summary.LoggedInAs)
	assert.Equal(t, domain.TierPro, summary.Tier)
	assert.Equal(t, "Pro Starter", summary.PlanName)
	assert.Equal(t, "monthly", summary.BillingInterval)
	assert.Equal(t, int64(1000), summary.TotalCredits)
	assert.Equal(t, int64(50), summary.RemainingCredits)
	assert.Equal(t, 20, summary.DaysUntilExpiry)
	assert.False(t, summary.CyclePassed)
	assert.True(t, summary.LowCredits)
	require.NotNil(t, summary.BillingCycleEnd)
}

func TestSummaryForTeamMemberView(t *testing.T) {
	members := []domain.TeamMember{
		{Email: "a@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: testNow},
		{Email: "b@x.io", Role: domain.RoleMember, Status: domain.MemberActive, JoinedAt: testNow},
	}
	team := starterTeam(members...)
	team.SharedCreditsUsed = 2000
	store, _, _ := newTestStore(t, teamAccount("a@x.io", team, domain.StatusActive), domain.NewAccount("b@x.io", 0))

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Equal(t, domain.TierTeams, summary.Tier)
	assert.Equal(t, "acme", summary.TeamName)
	assert.Equal(t, int64(3000), summary.RemainingCredits)
	assert.Equal(t, 5, summary.Seats)
	assert.Equal(t, 2, summary.SeatsUsed)
	assert.Equal(t, domain.RoleOwner, summary.Role)

	store.SetImpersonatedUser("b@x.io")
	summary, err = store.Summary()
	require.NoError(t, err)
	assert.Equal(t, "b@x.io", summary.Email)
	assert.Equal(t, "a@x.io", summary.LoggedInAs)
	assert.Equal(t, domain.RoleMember, summary.Role)
	assert.False(t, summary.BillingAdminView)
}

func TestBillingAdminView(t *testing.T) {
	owner := domain.TeamMember{Email: "a@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: testNow}
	store, _, _ := newTestStore(t, teamAccount("a@x.io", starterTeam(owner), domain.StatusActive))
	ctx := context.Background()

	require.NoError(t, store.InviteBillingAdmin(ctx, "fin@x.io"))
	store.SetImpersonatedUser("fin@x.io")
	assert.False(t, store.IsViewingAsBillingAdmin(), "pending admins get no admin view")

	require.NoError(t, store.AcceptBillingAdminInvite(ctx, "fin@x.io"))
	assert.True(t, store.IsViewingAsBillingAdmin())

	_, ok := store.ViewingAsUser()
	assert.False(t, ok, "billing admins need no account of their own")

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.True(t, summary.BillingAdminView)
	assert.Equal(t, "fin@x.io", summary.Email)
	assert.Zero(t, summary.TotalCredits)
	assert.Zero(t, summary.RemainingCredits)
	assert.Equal(t, 5, summary.Seats)

	store.SetImpersonatedUser("")
	assert.False(t, store.IsViewingAsBillingAdmin())
}

func TestBillingAdminViewNeedsTeamHolder(t *testing.T) {
	store, _, _ := newTestStore(t, domain.NewAccount("a@x.io", 150))
	store.SetImpersonatedUser("fin@x.io")

	assert.False(t, store.IsViewingAsBillingAdmin())
	_, err := store.Summary()
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
