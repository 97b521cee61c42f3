package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bnema/planctl/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() domain.State {
	joined := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	limit := int64(250)

	owner := domain.NewAccount("owner@example.com", 0)
	owner.Plan = domain.TeamsPlan{
		TeamName:          "Acme",
		PlanName:          "Teams Starter",
		Seats:             3,
		MonthlyCredits:    5000,
		SharedCredits:     5150,
		SharedCreditsUsed: 40,
		Members: []domain.TeamMember{
			{Email: "owner@example.com", Role: domain.RoleOwner, Status: domain.MemberActive, JoinedAt: joined},
			{Email: "dev@example.com", CreditLimit: &limit, Role: domain.RoleMember, Status: domain.MemberPending, JoinedAt: joined},
		},
		BillingAdmins: []domain.BillingAdmin{
			{Email: "finance@example.com", Status: domain.MemberActive, InvitedAt: joined, AcceptedAt: joined.Add(time.Hour)},
		},
	}
	owner.BillingCycle = joined
	owner.BillingCycleEnd = joined.AddDate(0, 0, 30)
	owner.PlanStatus = domain.StatusCancellationPending
	owner.CancelledAt = joined.Add(2 * time.Hour)
	owner.Invoices = []domain.Invoice{
		{ID: "INV-1", Date: joined, Amount: decimal.RequireFromString("49.99"), Description: "Teams Starter - 3 seats", Status: domain.InvoicePaid},
		{ID: "INV-2", Date: joined.Add(time.Minute), Amount: decimal.RequireFromString("8"), Description: "500 extra credits purchase", Status: domain.InvoicePending},
	}
	owner.CreditTransactions = []domain.CreditTransaction{
		{ID: "TXN-1", Date: joined, Credits: 5000, Type: domain.TxPlanChange, Description: "+5000 (Purchased)"},
		{ID: "TXN-2", Date: joined, Credits: 150, Type: domain.TxTransferred, Description: "+150 (Transferred)"},
	}

	pro := domain.NewAccount("pro@example.com", 500)
	pro.Plan = domain.ProPlan{Name: "Pro", MonthlyCredits: 500, Price: decimal.RequireFromString("20"), BillingInterval: domain.IntervalMonthly}
	pro.ExtraCredits = 100

	state := domain.NewState()
	state.CurrentUser = "pro@example.com"
	state.Users[owner.Email] = owner
	state.Users[pro.Email] = pro
	return state
}

func TestRepositoryRoundTripOnDisk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := Open(ctx, filepath.Join(t.TempDir(), "nested", "state.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.CurrentUser)
	assert.Empty(t, empty.Users)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.CurrentUser, got.CurrentUser)
	require.Len(t, got.Users, 2)

	wantOwner := want.Users["owner@example.com"]
	gotOwner := got.Users["owner@example.com"]
	wantTeam, _ := wantOwner.Teams()
	gotTeam, ok := gotOwner.Teams()
	require.True(t, ok)
	assert.Equal(t, wantTeam, gotTeam)
	assert.Equal(t, wantOwner.PlanStatus, gotOwner.PlanStatus)
	assert.Equal(t, wantOwner.CancelledAt, gotOwner.CancelledAt)
	assert.Equal(t, wantOwner.BillingCycleEnd, gotOwner.BillingCycleEnd)
	assert.Equal(t, wantOwner.CreditTransactions, gotOwner.CreditTransactions)
	require.Len(t, gotOwner.Invoices, 2)
	assert.Equal(t, "49.99", gotOwner.Invoices[0].Amount.String())
	assert.Equal(t, domain.InvoicePending, gotOwner.Invoices[1].Status)

	gotPro, ok := got.Users["pro@example.com"].Pro()
	require.True(t, ok)
	assert.Equal(t, "Pro", gotPro.Name)
	assert.True(t, gotPro.Price.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(100), got.Users["pro@example.com"].ExtraCredits)

	// A second save replaces the document rather than appending to it.
	delete(want.Users, "pro@example.com")
	want.CurrentUser = "owner@example.com"
	require.NoError(t, repo.Save(ctx, want))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", got.CurrentUser)
	assert.Len(t, got.Users, 1)
	assert.Len(t, got.Users["owner@example.com"].Invoices, 2)
}

func TestRepositoryReopenKeepsSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, sampleState()))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	state, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Users, 2)
}

func TestNewRepositoryFromDBValidation(t *testing.T) {
	_, err := NewRepositoryFromDB(nil)
	require.Error(t, err)
}

func TestSaveRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepositoryFromDB(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credit_transactions`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM invoices`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM session`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO session`)).WithArgs("pro@example.com").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO accounts`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = repo.Save(context.Background(), sampleState())
	require.Error(t, err)
	assert.ErrorContains(t, err, "save account owner@example.com")
	assert.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepositoryFromDB(db)
	require.NoError(t, err)

	state := domain.NewState()
	mock.ExpectBegin()
	for i := 0; i < 4; i++ {
		mock.ExpectExec(`DELETE FROM`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`INSERT INTO session`).WithArgs("").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("locked"))

	err = repo.Save(context.Background(), state)
	require.Error(t, err)
	assert.ErrorContains(t, err, "commit save")
}

func TestLoadQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepositoryFromDB(db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT current_email FROM session`)).
		WillReturnRows(sqlmock.NewRows([]string{"current_email"}).AddRow("a@example.com"))
	mock.ExpectQuery(`SELECT\s+email, plan`).WillReturnError(errors.New("boom"))

	_, err = repo.Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "load accounts")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRejectsCorruptPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepositoryFromDB(db)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT current_email FROM session`).
		WillReturnRows(sqlmock.NewRows([]string{"current_email"}))
	mock.ExpectQuery(`SELECT\s+email, plan`).WillReturnRows(sqlmock.NewRows([]string{
		"email", "plan", "credits", "credits_used", "extra_credits",
		"billing_cycle", "billing_cycle_end", "plan_status", "cancelled_at", "plan_payload",
	}).AddRow("a@example.com", "teams", 0, 0, 0, "", "", "active", "", "{not json"))

	_, err = repo.Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode plan payload")
}
