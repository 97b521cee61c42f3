// Package sqlite keeps the billing state in a SQLite database. Each Save
// replaces the stored document inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/bnema/planctl/internal/domain"
	"github.com/bnema/planctl/internal/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ ports.StateRepository = (*Repository)(nil)

// Open creates the database at path if needed and applies migrations.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"foreign_keys(1)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping state db: %w", err)
	}

	if err := migrateUp(db, logger.With().Str("component", "sqlite").Logger()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// NewRepositoryFromDB wraps an already migrated database.
func NewRepositoryFromDB(db *sql.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.New("sqlite: db is nil")
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Load(ctx context.Context) (domain.State, error) {
	state := domain.NewState()

	err := r.db.QueryRowContext(ctx, `SELECT current_email FROM session WHERE id = 1`).Scan(&state.CurrentUser)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.State{}, fmt.Errorf("load session: %w", err)
	}

	if err := r.loadAccounts(ctx, state.Users); err != nil {
		return domain.State{}, err
	}
	if err := r.loadInvoices(ctx, state.Users); err != nil {
		return domain.State{}, err
	}
	if err := r.loadTransactions(ctx, state.Users); err != nil {
		return domain.State{}, err
	}

	return state, nil
}

func (r *Repository) loadAccounts(ctx context.Context, users map[string]domain.Account) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, plan, credits, credits_used, extra_credits,
		       billing_cycle, billing_cycle_end, plan_status, cancelled_at, plan_payload
		FROM accounts
		ORDER BY email`)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			email, plan, status, payload      string
			cycle, cycleEnd, cancelledAt      string
			credits, creditsUsed, extraCredit int64
		)
		if err := rows.Scan(&email, &plan, &credits, &creditsUsed, &extraCredit,
			&cycle, &cycleEnd, &status, &cancelledAt, &payload); err != nil {
			return fmt.Errorf("scan account: %w", err)
		}

		account := domain.NewAccount(email, credits)
		account.CreditsUsed = creditsUsed
		account.ExtraCredits = extraCredit
		if account.PlanStatus, err = domain.ParsePlanStatus(status); err != nil {
			return fmt.Errorf("account %s: %w", email, err)
		}

		tier, err := domain.ParseTier(plan)
		if err != nil {
			return fmt.Errorf("account %s: %w", email, err)
		}
		if account.Plan, err = decodePlan(tier, payload); err != nil {
			return fmt.Errorf("account %s: %w", email, err)
		}
		if account.BillingCycle, err = parseTime(cycle); err != nil {
			return fmt.Errorf("account %s: %w", email, err)
		}
		if account.BillingCycleEnd, err = parseTime(cycleEnd); err != nil {
			return fmt.Errorf("account %s: %w", email, err)
		}
		if account.CancelledAt, err = parseTime(cancelledAt); err != nil {
			return fmt.Errorf("account %s: %w", email, err)
		}

		users[email] = account
	}
	return rows.Err()
}

func (r *Repository) loadInvoices(ctx context.Context, users map[string]domain.Account) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, id, date, amount, description, status
		FROM invoices
		ORDER BY email, seq`)
	if err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email, id, date, amount, description, status string
		if err := rows.Scan(&email, &id, &date, &amount, &description, &status); err != nil {
			return fmt.Errorf("scan invoice: %w", err)
		}

		account, ok := users[email]
		if !ok {
			continue
		}
		invoice := domain.Invoice{ID: id, Description: description, Status: domain.InvoiceStatus(status)}
		if invoice.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("invoice %s: parse amount %q: %w", id, amount, err)
		}
		if invoice.Date, err = parseTime(date); err != nil {
			return fmt.Errorf("invoice %s: %w", id, err)
		}
		account.Invoices = append(account.Invoices, invoice)
		users[email] = account
	}
	return rows.Err()
}

func (r *Repository) loadTransactions(ctx context.Context, users map[string]domain.Account) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, id, date, credits, type, description
		FROM credit_transactions
		ORDER BY email, seq`)
	if err != nil {
		return fmt.Errorf("load credit transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			email, id, date, kind, description string
			credits                            int64
		)
		if err := rows.Scan(&email, &id, &date, &credits, &kind, &description); err != nil {
			return fmt.Errorf("scan credit transaction: %w", err)
		}

		account, ok := users[email]
		if !ok {
			continue
		}
		txn := domain.CreditTransaction{ID: id, Credits: credits, Type: domain.TransactionType(kind), Description: description}
		if txn.Date, err = parseTime(date); err != nil {
			return fmt.Errorf("credit transaction %s: %w", id, err)
		}
		account.CreditTransactions = append(account.CreditTransactions, txn)
		users[email] = account
	}
	return rows.Err()
}

func (r *Repository) Save(ctx context.Context, state domain.State) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM credit_transactions`,
		`DELETE FROM invoices`,
		`DELETE FROM accounts`,
		`DELETE FROM session`,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO session (id, current_email) VALUES (1, ?)`, state.CurrentUser); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	for _, email := range state.SortedEmails() {
		if err = insertAccount(ctx, tx, state.Users[email]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func insertAccount(ctx context.Context, tx *sql.Tx, account domain.Account) error {
	payload, err := encodePlan(account.Plan)
	if err != nil {
		return fmt.Errorf("account %s: %w", account.Email, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (email, plan, credits, credits_used, extra_credits,
			billing_cycle, billing_cycle_end, plan_status, cancelled_at, plan_payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.Email, string(account.Tier()), account.Credits, account.CreditsUsed, account.ExtraCredits,
		formatTime(account.BillingCycle), formatTime(account.BillingCycleEnd),
		string(account.PlanStatus), formatTime(account.CancelledAt), payload)
	if err != nil {
		return fmt.Errorf("save account %s: %w", account.Email, err)
	}

	for i, invoice := range account.Invoices {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoices (email, seq, id, date, amount, description, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			account.Email, i, invoice.ID, formatTime(invoice.Date), invoice.Amount.String(),
			invoice.Description, string(invoice.Status))
		if err != nil {
			return fmt.Errorf("save invoice %s: %w", invoice.ID, err)
		}
	}

	for i, txn := range account.CreditTransactions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO credit_transactions (email, seq, id, date, credits, type, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			account.Email, i, txn.ID, formatTime(txn.Date), txn.Credits, string(txn.Type), txn.Description)
		if err != nil {
			return fmt.Errorf("save credit transaction %s: %w", txn.ID, err)
		}
	}
	return nil
}
