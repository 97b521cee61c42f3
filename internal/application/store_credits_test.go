package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBurnCreditsClampsAtBalance(t *testing.T) {
	store, _, _ := newTestStore(t, domain.NewAccount("a@x.io", 150))
	ctx := context.Background()

	require.NoError(t, store.BurnCredits(ctx, 100))
	require.NoError(t, store.BurnCredits(ctx, 500))

	account := mustCurrent(t, store)
	assert.Equal(t, int64(150), account.CreditsUsed)
	assert.Zero(t, account.Available())
}

func TestBurnCreditsDrawsFromTeamPool(t *testing.T) {
	owner := domain.TeamMember{Email: "a@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: testNow}
	store, _, _ := newTestStore(t, teamAccount("a@x.io", starterTeam(owner), domain.StatusActive))
	ctx := context.Background()

	require.NoError(t, store.BurnCredits(ctx, 4000))
	require.NoError(t, store.BurnCredits(ctx, 4000))

	team := mustTeam(t, mustCurrent(t, store))
	assert.Equal(t, int64(5000), team.SharedCreditsUsed)
	assert.Zero(t, team.Available())
}

func TestBuyCreditsIndividual(t *testing.T) {
	store, _, _ := newTestStore(t, domain.NewAccount("a@x.io", 150))

	require.NoError(t, store.BuyCredits(context.Background(), 500, decimal.NewFromInt(15)))

	account := mustCurrent(t, store)
	assert.Equal(t, int64(650), account.Credits)
	require.Len(t, account.Invoices, 1)
	assert.Equal(t, "500 credits purchase", account.Invoices[0].Description)
	assert.Equal(t, "15", account.Invoices[0].Amount.String())
	assert.Equal(t, domain.InvoicePaid, account.Invoices[0].Status)
	last := lastTransactions(account, 1)[0]
	assert.Equal(t, domain.TxPurchased, last.Type)
	assert.Equal(t, "+500 (Purchased)", last.Description)
}

func TestBuyCreditsTeamPool(t *testing.T) {
	owner := domain.TeamMember{Email: "a@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: testNow}
	store, _, _ := newTestStore(t, teamAccount("a@x.io", starterTeam(owner), domain.StatusActive))

	require.NoError(t, store.BuyCredits(context.Background(), 1000, decimal.NewFromInt(25)))

	account := mustCurrent(t, store)
	assert.Equal(t, int64(6000), mustTeam(t, account).SharedCredits)
	assert.Zero(t, account.Credits)
}

func TestBuyExtraCredits(t *testing.T) {
	t.Run("pro", func(t *testing.T) {
		store, _, _ := newTestStore(t, proAccount("a@x.io", 1000, 0, 0, domain.StatusActive))

		require.NoError(t, store.BuyExtraCredits(context.Background(), 5000, decimal.NewFromInt(50)))

		account := mustCurrent(t, store)
		assert.Equal(t, int64(6000), account.Credits)
		assert.Equal(t, int64(5000), account.ExtraCredits)
		assert.Equal(t, "5000 extra credits purchase", account.Invoices[0].Description)
		last := lastTransactions(account, 1)[0]
		assert.Equal(t, domain.TxExtraCredits, last.Type)
		assert.Equal(t, "+5000 (Extra)", last.Description)
	})

	t.Run("teams", func(t *testing.T) {
		owner := domain.TeamMember{Email: "a@x.io", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: testNow}
		store, _, _ := newTestStore(t, teamAccount("a@x.io", starterTeam(owner), domain.StatusActive))

		require.NoError(t, store.BuyExtraCredits(context.Background(), 1000, decimal.NewFromInt(10)))

		team := mustTeam(t, mustCurrent(t, store))
		assert.Equal(t, int64(6000), team.SharedCredits)
		assert.Equal(t, int64(1000), team.ExtraCredits)
	})
}

func TestAddInvoiceAndTransaction(t *testing.T) {
	store, _, _ := newTestStore(t, domain.NewAccount("a@x.io", 150))
	ctx := context.Background()
	billed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	invoice, err := store.AddInvoice(ctx, NewInvoice{Amount: decimal.RequireFromString("19.99"), Description: "Manual adjustment", Date: billed})
	require.NoError(t, err)
	assert.Equal(t, "INV-1", invoice.ID)
	assert.Equal(t, domain.InvoicePaid, invoice.Status)
	assert.Equal(t, billed, invoice.Date)

	_, err = store.AddInvoice(ctx, NewInvoice{Amount: decimal.NewFromInt(-1), Description: "refund"})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = store.AddInvoice(ctx, NewInvoice{Amount: decimal.NewFromInt(1), Description: "x", Status: "lost"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, store.AddCreditTransaction(ctx, domain.TxDaily, 25, "+25 (Daily)"))

	account := mustCurrent(t, store)
	require.Len(t, account.Invoices, 1)
	assert.Equal(t, billed, account.Invoices[0].Date)
	assert.Equal(t, int64(150), account.Credits, "transactions do not move balances")
	last := lastTransactions(account, 1)[0]
	assert.Equal(t, domain.TxDaily, last.Type)
	assert.Equal(t, "+25 (Daily)", last.Description)
}

func TestTransactionIDsAreUnique(t *testing.T) {
	store, _, _ := newTestStore(t, domain.NewAccount("a@x.io", 150))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.BuyCredits(ctx, 500, decimal.NewFromInt(15)))
	}

	seen := map[string]struct{}{}
	for _, txn := range mustCurrent(t, store).CreditTransactions {
		_, dup := seen[txn.ID]
		assert.False(t, dup, "duplicate id %s", txn.ID)
		seen[txn.ID] = struct{}{}
	}
}
