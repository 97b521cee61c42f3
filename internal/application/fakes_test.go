package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type memoryRepo struct {
	mu    sync.Mutex
	state domain.State
	saves int
}

func (r *memoryRepo) Load(context.Context) (domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Users == nil {
		return domain.NewState(), nil
	}
	return r.state.Clone(), nil
}

func (r *memoryRepo) Save(_ context.Context, state domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state.Clone()
	r.saves++
	return nil
}

func (r *memoryRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type seqIDs struct {
	mu       sync.Mutex
	invoices int
	txns     int
}

func (g *seqIDs) InvoiceID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invoices++
	return fmt.Sprintf("INV-%d", g.invoices)
}

func (g *seqIDs) TransactionID(time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.txns++
	return fmt.Sprintf("TXN-%d", g.txns)
}

// newTestStore seeds the repository with accounts and logs in as the first.
func newTestStore(t *testing.T, accounts ...domain.Account) (*Store, *memoryRepo, *fixedClock) {
	t.Helper()

	repo := &memoryRepo{}
	if len(accounts) > 0 {
		repo.state = domain.NewState()
		repo.state.CurrentUser = accounts[0].Email
		for _, account := range accounts {
			repo.state.Users[account.Email] = account
		}
	}
	clock := &fixedClock{now: testNow}
	store, err := NewStore(context.Background(), repo, StoreOptions{Clock: clock, IDs: &seqIDs{}})
	require.NoError(t, err)
	return store, repo, clock
}

func mustCurrent(t *testing.T, store *Store) domain.Account {
	t.Helper()
	account, ok := store.CurrentUser()
	require.True(t, ok, "no current user")
	return account
}

func mustAccount(t *testing.T, store *Store, email string) domain.Account {
	t.Helper()
	account, ok := store.Account(email)
	require.True(t, ok, "account %s not found", email)
	return account
}

func mustTeam(t *testing.T, account domain.Account) domain.TeamsPlan {
	t.Helper()
	team, ok := account.Teams()
	require.True(t, ok, "%s is on the %s plan", account.Email, account.Tier())
	return team
}

func proAccount(email string, credits, used, extra int64, status domain.PlanStatus) domain.Account {
	account := domain.NewAccount(email, credits)
	account.Plan = domain.ProPlan{Name: "Pro Starter", MonthlyCredits: 1000, BillingInterval: domain.IntervalMonthly}
	account.CreditsUsed = used
	account.ExtraCredits = extra
	account.PlanStatus = status
	account.BillingCycle = testNow.AddDate(0, 0, -10)
	account.BillingCycleEnd = testNow.AddDate(0, 0, 20)
	return account
}

func teamAccount(email string, team domain.TeamsPlan, status domain.PlanStatus) domain.Account {
	account := domain.NewAccount(email, 0)
	account.Plan = team
	account.PlanStatus = status
	account.BillingCycle = testNow.AddDate(0, 0, -10)
	account.BillingCycleEnd = testNow.AddDate(0, 0, 20)
	return account
}

func starterTeam(members ...domain.TeamMember) domain.TeamsPlan {
	return domain.TeamsPlan{
		TeamName:       "acme",
		PlanName:       "Teams Starter",
		Seats:          5,
		MonthlyCredits: 5000,
		SharedCredits:  5000,
		Members:        members,
	}
}

func lastTransactions(account domain.Account, n int) []domain.CreditTransaction {
	txns := account.CreditTransactions
	if len(txns) < n {
		return txns
	}
	return txns[len(txns)-n:]
}
