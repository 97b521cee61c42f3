package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/bnema/planctl/internal/ports"
	"github.com/shopspring/decimal"
)

const (
	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

var zeroTime time.Time

// lifecycleOps commit at info level; every other mutation logs at debug.
var lifecycleOps = map[string]bool{
	"cancel pro plan":             true,
	"cancel teams plan":           true,
	"reactivate pro plan":         true,
	"reactivate teams plan":       true,
	"process billing cycle":       true,
	"process teams billing cycle": true,
	"delete team":                 true,
	"clear storage":               true,
}

// txn is one mutation in flight. It holds a private copy of the document, so
// nothing it does is visible until mutate swaps the copy in.
type txn struct {
	now     time.Time
	pricing domain.Pricing
	ids     ports.IDGenerator
	state   domain.State
	touched []string
}

func (s *Store) mutate(ctx context.Context, op string, fn func(tx *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{
		now:     s.clock.Now(),
		pricing: s.pricing,
		ids:     s.ids,
		state:   s.state.Clone(),
	}
	if err := fn(tx); err != nil {
		s.metrics.observe(op, outcomeRejected)
		var pe *domain.PreconditionError
		if !errors.As(err, &pe) {
			err = &domain.PreconditionError{Op: op, Reason: err}
		}
		s.log.Debug().Str("op", op).Err(err).Msg("Mutation rejected")
		return err
	}

	if err := s.repo.Save(ctx, tx.state); err != nil {
		s.metrics.observe(op, outcomeFailed)
		s.log.Error().Str("op", op).Err(err).Msg("Failed to save state")
		return fmt.Errorf("save state: %w", err)
	}

	s.state = tx.state
	s.metrics.observe(op, outcomeCommitted)
	s.metrics.setAccounts(len(s.state.Users))
	event := s.log.Debug()
	if lifecycleOps[op] {
		event = s.log.Info()
	}
	event.Str("op", op).Str("email", s.state.CurrentUser).Strs("accounts", tx.touched).Msg("Mutation committed")
	return nil
}

func (tx *txn) current() (domain.Account, error) {
	if tx.state.CurrentUser == "" {
		return domain.Account{}, domain.ErrNoCurrentUser
	}
	return tx.account(tx.state.CurrentUser)
}

func (tx *txn) account(email string) (domain.Account, error) {
	account, ok := tx.state.Users[email]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, email)
	}
	return account.Clone(), nil
}

// currentTeam returns the logged-in account together with its team payload.
func (tx *txn) currentTeam() (domain.Account, domain.TeamsPlan, error) {
	account, err := tx.current()
	if err != nil {
		return domain.Account{}, domain.TeamsPlan{}, err
	}
	team, ok := account.Teams()
	if !ok {
		return domain.Account{}, domain.TeamsPlan{}, fmt.Errorf("%w: %s is on the %s plan", domain.ErrWrongPlan, account.Email, account.Tier())
	}
	return account, team, nil
}

func (tx *txn) put(account domain.Account) {
	tx.state.Users[account.Email] = account
	tx.touched = append(tx.touched, account.Email)
}

func (tx *txn) logCredits(account *domain.Account, kind domain.TransactionType, credits int64, label string) {
	account.CreditTransactions = append(account.CreditTransactions, domain.CreditTransaction{
		ID:          tx.ids.TransactionID(tx.now),
		Date:        tx.now,
		Credits:     credits,
		Type:        kind,
		Description: creditDescription(credits, label),
	})
}

func (tx *txn) addInvoice(account *domain.Account, amount decimal.Decimal, description string, status domain.InvoiceStatus) domain.Invoice {
	invoice := domain.Invoice{
		ID:          tx.ids.InvoiceID(),
		Date:        tx.now,
		Amount:      amount,
		Description: description,
		Status:      status,
	}
	account.Invoices = append(account.Invoices, invoice)
	return invoice
}

func (tx *txn) startCycle(account *domain.Account, interval domain.BillingInterval) {
	account.BillingCycle = tx.now
	account.BillingCycleEnd = tx.pricing.CycleEnd(tx.now, interval)
	account.PlanStatus = domain.StatusActive
	account.CancelledAt = time.Time{}
}

func creditDescription(credits int64, label string) string {
	if credits < 0 {
		return fmt.Sprintf("%d (%s)", credits, label)
	}
	return fmt.Sprintf("+%d (%s)", credits, label)
}
