package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/bnema/planctl/internal/ports"
	"github.com/rs/zerolog"
)

var errNilIDGenerator = errors.New("id generator is nil")

type StoreOptions struct {
	Clock   ports.Clock
	IDs     ports.IDGenerator
	Pricing *domain.Pricing
	Logger  *zerolog.Logger
	Metrics *Metrics
}

// Store owns the state document and is the only writer to it. Every mutation
// works on copies and swaps them in after the repository accepted the save.
type Store struct {
	mu      sync.RWMutex
	repo    ports.StateRepository
	clock   ports.Clock
	ids     ports.IDGenerator
	pricing domain.Pricing
	log     zerolog.Logger
	metrics *Metrics

	state        domain.State
	impersonated string
}

func NewStore(ctx context.Context, repo ports.StateRepository, opts StoreOptions) (*Store, error) {
	if opts.IDs == nil {
		return nil, errNilIDGenerator
	}
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	pricing := domain.DefaultPricing()
	if opts.Pricing != nil {
		pricing = *opts.Pricing
	}
	if err := pricing.Validate(); err != nil {
		return nil, fmt.Errorf("validate pricing: %w", err)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "store").Logger()
	}

	s := &Store{
		repo:    repo,
		clock:   clock,
		ids:     opts.IDs,
		pricing: pricing,
		log:     logger,
		metrics: opts.Metrics,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory document with the persisted one. The
// impersonation pointer survives since it is never persisted.
func (s *Store) Reload(ctx context.Context) error {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if state.Users == nil {
		state.Users = map[string]domain.Account{}
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.metrics.setAccounts(len(state.Users))
	s.log.Debug().Int("accounts", len(state.Users)).Str("current_user", state.CurrentUser).Msg("State loaded")
	return nil
}

func (s *Store) Pricing() domain.Pricing {
	return s.pricing
}

func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// SetCurrentUser logs in as email, creating a free account on first use.
func (s *Store) SetCurrentUser(ctx context.Context, email string) (domain.Account, error) {
	var account domain.Account
	err := s.mutate(ctx, "set current user", func(tx *txn) error {
		normalized, err := NormalizeEmail(email)
		if err != nil {
			return err
		}
		acc, ok := tx.state.Users[normalized]
		if !ok {
			acc = domain.NewAccount(normalized, tx.pricing.InitialFreeCredits)
			tx.logCredits(&acc, domain.TxSignup, tx.pricing.InitialFreeCredits, "Signup")
			tx.put(acc)
		}
		tx.state.CurrentUser = normalized
		account = acc.Clone()
		return nil
	})
	return account, err
}

func (s *Store) Login(ctx context.Context, email string) (domain.Account, error) {
	return s.SetCurrentUser(ctx, email)
}

func (s *Store) Logout(ctx context.Context) error {
	err := s.mutate(ctx, "logout", func(tx *txn) error {
		tx.state.CurrentUser = ""
		return nil
	})
	if err != nil {
		return err
	}
	s.SetImpersonatedUser("")
	return nil
}

// ClearStorage wipes every account and persists the empty document.
func (s *Store) ClearStorage(ctx context.Context) error {
	err := s.mutate(ctx, "clear storage", func(tx *txn) error {
		tx.state = domain.NewState()
		return nil
	})
	if err != nil {
		return err
	}
	s.SetImpersonatedUser("")
	return nil
}

func (s *Store) CurrentUser() (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.state.CurrentUser)
}

func (s *Store) Account(email string) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) Accounts() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := s.state.SortedEmails()
	accounts := make([]domain.Account, 0, len(emails))
	for _, email := range emails {
		accounts = append(accounts, s.state.Users[email].Clone())
	}
	return accounts
}

// SetImpersonatedUser points the view at another account without changing
// who is logged in. An empty email clears it.
func (s *Store) SetImpersonatedUser(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.impersonated = strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) ImpersonatedUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.impersonated
}

func (s *Store) ViewingAsUser() (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.viewingAsEmail())
}

// IsViewingAsBillingAdmin is true when the logged-in account runs a team and
// the impersonated email is one of its active billing admins.
func (s *Store) IsViewingAsBillingAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.viewingAsBillingAdmin()
}

func (s *Store) viewingAsBillingAdmin() bool {
	if s.impersonated == "" {
		return false
	}
	current, ok := s.state.Users[s.state.CurrentUser]
	if !ok {
		return false
	}
	team, ok := current.Teams()
	if !ok {
		return false
	}
	admin, ok := team.BillingAdmin(s.impersonated)
	return ok && admin.Status == domain.MemberActive
}

func (s *Store) viewingAsEmail() string {
	if s.impersonated != "" {
		return s.impersonated
	}
	return s.state.CurrentUser
}

func (s *Store) lookup(email string) (domain.Account, bool) {
	if email == "" {
		return domain.Account{}, false
	}
	account, ok := s.state.Users[email]
	if !ok {
		return domain.Account{}, false
	}
	return account.Clone(), true
}

func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(email, " \t\n") {
		return "", fmt.Errorf("%w: email %q contains whitespace", domain.ErrInvalidInput, raw)
	}
	return email, nil
}
