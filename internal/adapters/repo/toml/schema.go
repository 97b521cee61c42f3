package toml

import "fmt"

// Version 1 documents predate billing admins, the transaction log and member
// status. They are upgraded in memory on load and written back as version 2
// on the next save.
const (
	legacySchemaVersion  = 1
	currentSchemaVersion = 2
)

type fileSchema struct {
	Version     int             `toml:"version"`
	CurrentUser string          `toml:"current_user"`
	Accounts    []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// migrate brings an older document up to the current shape.
func (s *fileSchema) migrate() {
	if s.Version >= currentSchemaVersion {
		return
	}
	for i := range s.Accounts {
		account := &s.Accounts[i]
		if account.Transactions == nil {
			account.Transactions = []transactionSchema{}
		}
		if account.Teams == nil {
			continue
		}
		if account.Teams.BillingAdmins == nil {
			account.Teams.BillingAdmins = []billingAdminSchema{}
		}
		for j := range account.Teams.Members {
			if account.Teams.Members[j].Status == "" {
				account.Teams.Members[j].Status = "active"
			}
		}
	}
	s.Version = currentSchemaVersion
}

type accountSchema struct {
	Email           string              `toml:"email"`
	Plan            string              `toml:"plan"`
	Credits         int64               `toml:"credits"`
	CreditsUsed     int64               `toml:"credits_used"`
	ExtraCredits    int64               `toml:"extra_credits"`
	BillingCycle    string              `toml:"billing_cycle,omitempty"`
	BillingCycleEnd string              `toml:"billing_cycle_end,omitempty"`
	PlanStatus      string              `toml:"plan_status,omitempty"`
	CancelledAt     string              `toml:"cancelled_at,omitempty"`
	Pro             *proSchema          `toml:"pro,omitempty"`
	Teams           *teamsSchema        `toml:"teams,omitempty"`
	Invoices        []invoiceSchema     `toml:"invoices,omitempty"`
	Transactions    []transactionSchema `toml:"transactions,omitempty"`
}

type proSchema struct {
	Name            string `toml:"name"`
	MonthlyCredits  int64  `toml:"monthly_credits"`
	Price           string `toml:"price"`
	BillingInterval string `toml:"billing_interval"`
}

type teamsSchema struct {
	TeamName          string               `toml:"team_name"`
	PlanName          string               `toml:"plan_name"`
	Seats             int                  `toml:"seats"`
	MonthlyCredits    int64                `toml:"monthly_credits"`
	SharedCredits     int64                `toml:"shared_credits"`
	SharedCreditsUsed int64                `toml:"shared_credits_used"`
	ExtraCredits      int64                `toml:"extra_credits"`
	Members           []memberSchema       `toml:"members"`
	BillingAdmins     []billingAdminSchema `toml:"billing_admins"`
}

type memberSchema struct {
	Email       string `toml:"email"`
	CreditLimit *int64 `toml:"credit_limit,omitempty"`
	Role        string `toml:"role"`
	Status      string `toml:"status"`
	JoinedAt    string `toml:"joined_at"`
}

type billingAdminSchema struct {
	Email      string `toml:"email"`
	Status     string `toml:"status"`
	InvitedAt  string `toml:"invited_at"`
	AcceptedAt string `toml:"accepted_at,omitempty"`
}

type invoiceSchema struct {
	ID          string `toml:"id"`
	Date        string `toml:"date"`
	Amount      string `toml:"amount"`
	Description string `toml:"description"`
	Status      string `toml:"status"`
}

type transactionSchema struct {
	ID          string `toml:"id"`
	Date        string `toml:"date"`
	Credits     int64  `toml:"credits"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
}
