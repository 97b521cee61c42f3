package httpapi

import (
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
)

type accountResponse struct {
	Email           string                `json:"email"`
	Tier            domain.PlanTier       `json:"tier"`
	Status          domain.PlanStatus     `json:"status"`
	Credits         int64                 `json:"credits"`
	CreditsUsed     int64                 `json:"credits_used"`
	ExtraCredits    int64                 `json:"extra_credits"`
	BillingCycle    *time.Time            `json:"billing_cycle,omitempty"`
	BillingCycleEnd *time.Time            `json:"billing_cycle_end,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	Pro             *proResponse          `json:"pro,omitempty"`
	Teams           *teamsResponse        `json:"teams,omitempty"`
	Invoices        []invoiceResponse     `json:"invoices"`
	Transactions    []transactionResponse `json:"transactions"`
}

type proResponse struct {
	Name            string                 `json:"name"`
	MonthlyCredits  int64                  `json:"monthly_credits"`
	Price           decimal.Decimal        `json:"price"`
	BillingInterval domain.BillingInterval `json:"billing_interval"`
}

type teamsResponse struct {
	TeamName          string                `json:"team_name"`
	PlanName          string                `json:"plan_name"`
	Seats             int                   `json:"seats"`
	MonthlyCredits    int64                 `json:"monthly_credits"`
	SharedCredits     int64                 `json:"shared_credits"`
	SharedCreditsUsed int64                 `json:"shared_credits_used"`
	ExtraCredits      int64                 `json:"extra_credits"`
	Members           []domain.TeamMember   `json:"members"`
	BillingAdmins     []domain.BillingAdmin `json:"billing_admins"`
}

type invoiceResponse struct {
	ID          string               `json:"id"`
	Date        time.Time            `json:"date"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	Status      domain.InvoiceStatus `json:"status"`
}

type transactionResponse struct {
	ID          string                 `json:"id"`
	Date        time.Time              `json:"date"`
	Credits     int64                  `json:"credits"`
	Type        domain.TransactionType `json:"type"`
	Description string                 `json:"description"`
}

func newAccountResponse(account domain.Account) accountResponse {
	out := accountResponse{
		Email:           account.Email,
		Tier:            account.Tier(),
		Status:          account.Status(),
		Credits:         account.Credits,
		CreditsUsed:     account.CreditsUsed,
		ExtraCredits:    account.ExtraCredits,
		BillingCycle:    optionalTime(account.BillingCycle),
		BillingCycleEnd: optionalTime(account.BillingCycleEnd),
		CancelledAt:     optionalTime(account.CancelledAt),
		Invoices:        make([]invoiceResponse, 0, len(account.Invoices)),
		Transactions:    make([]transactionResponse, 0, len(account.CreditTransactions)),
	}

	if pro, ok := account.Pro(); ok {
		out.Pro = &proResponse{
			Name:            pro.Name,
			MonthlyCredits:  pro.MonthlyCredits,
			Price:           pro.Price,
			BillingInterval: pro.BillingInterval,
		}
	}
	if team, ok := account.Teams(); ok {
		out.Teams = &teamsResponse{
			TeamName:          team.TeamName,
			PlanName:          team.PlanName,
			Seats:             team.Seats,
			MonthlyCredits:    team.MonthlyCredits,
			SharedCredits:     team.SharedCredits,
			SharedCreditsUsed: team.SharedCreditsUsed,
			ExtraCredits:      team.ExtraCredits,
			Members:           team.Members,
			BillingAdmins:     team.BillingAdmins,
		}
	}

	for _, invoice := range account.Invoices {
		out.Invoices = append(out.Invoices, invoiceResponse(invoice))
	}
	for _, txn := range account.CreditTransactions {
		out.Transactions = append(out.Transactions, transactionResponse(txn))
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
