package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
)

type NewInvoice struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Status      domain.InvoiceStatus
}

// BuyCredits adds a one-time bundle to the team pool or the individual
// balance, whichever the current user draws from.
func (s *Store) BuyCredits(ctx context.Context, credits int64, price decimal.Decimal) error {
	return s.mutate(ctx, "buy credits", func(tx *txn) error {
		return tx.buyCredits(credits, price)
	})
}

// BuyExtraCredits is only open to paying plans.
func (s *Store) BuyExtraCredits(ctx context.Context, credits int64, price decimal.Decimal) error {
	return s.mutate(ctx, "buy extra credits", func(tx *txn) error {
		return tx.buyExtraCredits(credits, price)
	})
}

// BurnCredits consumes credits. Overdrawing is clamped at the pool total.
func (s *Store) BurnCredits(ctx context.Context, amount int64) error {
	return s.mutate(ctx, "burn credits", func(tx *txn) error {
		if amount <= 0 {
			return fmt.Errorf("%w: burn amount must be positive", domain.ErrInvalidAmount)
		}
		account, err := tx.current()
		if err != nil {
			return err
		}
		if team, ok := account.Teams(); ok {
			team.SharedCreditsUsed = min(team.SharedCreditsUsed+amount, team.SharedCredits)
			account.Plan = team
		} else {
			account.CreditsUsed = min(account.CreditsUsed+amount, account.Credits)
		}
		tx.put(account)
		return nil
	})
}

func (s *Store) AddInvoice(ctx context.Context, in NewInvoice) (domain.Invoice, error) {
	var invoice domain.Invoice
	err := s.mutate(ctx, "add invoice", func(tx *txn) error {
		account, err := tx.current()
		if err != nil {
			return err
		}
		if in.Amount.IsNegative() {
			return fmt.Errorf("%w: invoice amount must not be negative", domain.ErrInvalidAmount)
		}
		status := in.Status
		if status == "" {
			status = domain.InvoicePaid
		}
		if !domain.ValidInvoiceStatus(status) {
			return fmt.Errorf("%w: unknown invoice status %q", domain.ErrInvalidInput, status)
		}
		if strings.TrimSpace(in.Description) == "" {
			return fmt.Errorf("%w: invoice description is required", domain.ErrInvalidInput)
		}
		invoice = tx.addInvoice(&account, in.Amount, in.Description, status)
		if !in.Date.IsZero() {
			invoice.Date = in.Date
			account.Invoices[len(account.Invoices)-1].Date = in.Date
		}
		tx.put(account)
		return nil
	})
	return invoice, err
}

// AddCreditTransaction appends an audit entry without touching any balance.
func (s *Store) AddCreditTransaction(ctx context.Context, kind domain.TransactionType, credits int64, description string) error {
	return s.mutate(ctx, "add credit transaction", func(tx *txn) error {
		if !domain.ValidTransactionType(kind) {
			return fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, kind)
		}
		account, err := tx.current()
		if err != nil {
			return err
		}
		account.CreditTransactions = append(account.CreditTransactions, domain.CreditTransaction{
			ID:          tx.ids.TransactionID(tx.now),
			Date:        tx.now,
			Credits:     credits,
			Type:        kind,
			Description: description,
		})
		tx.put(account)
		return nil
	})
}

func (tx *txn) buyCredits(credits int64, price decimal.Decimal) error {
	if err := validatePurchase(credits, price); err != nil {
		return err
	}
	account, err := tx.current()
	if err != nil {
		return err
	}
	if team, ok := account.Teams(); ok {
		team.SharedCredits += credits
		account.Plan = team
	} else {
		account.Credits += credits
	}
	tx.addInvoice(&account, price, fmt.Sprintf("%d credits purchase", credits), domain.InvoicePaid)
	tx.logCredits(&account, domain.TxPurchased, credits, "Purchased")
	tx.put(account)
	return nil
}

func (tx *txn) buyExtraCredits(credits int64, price decimal.Decimal) error {
	if err := validatePurchase(credits, price); err != nil {
		return err
	}
	account, err := tx.current()
	if err != nil {
		return err
	}
	switch account.Tier() {
	case domain.TierTeams:
		team, _ := account.Teams()
		team.SharedCredits += credits
		team.ExtraCredits += credits
		account.Plan = team
	case domain.TierPro:
		account.Credits += credits
		account.ExtraCredits += credits
	default:
		return fmt.Errorf("%w: extra credits need a pro or teams plan", domain.ErrWrongPlan)
	}
	tx.addInvoice(&account, price, fmt.Sprintf("%d extra credits purchase", credits), domain.InvoicePaid)
	tx.logCredits(&account, domain.TxExtraCredits, credits, "Extra")
	tx.put(account)
	return nil
}

func validatePurchase(credits int64, price decimal.Decimal) error {
	if credits <= 0 {
		return fmt.Errorf("%w: credits must be positive", domain.ErrInvalidAmount)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidAmount)
	}
	return nil
}
