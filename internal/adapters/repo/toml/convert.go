package toml

import (
	"fmt"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
)

func toSchema(state domain.State) fileSchema {
	file := fileSchema{
		Version:     currentSchemaVersion,
		CurrentUser: state.CurrentUser,
		Accounts:    make([]accountSchema, 0, len(state.Users)),
	}
	for _, email := range state.SortedEmails() {
		file.Accounts = append(file.Accounts, toAccountSchema(state.Users[email]))
	}
	return file
}

func toAccountSchema(account domain.Account) accountSchema {
	out := accountSchema{
		Email:           account.Email,
		Plan:            string(account.Tier()),
		Credits:         account.Credits,
		CreditsUsed:     account.CreditsUsed,
		ExtraCredits:    account.ExtraCredits,
		BillingCycle:    formatTime(account.BillingCycle),
		BillingCycleEnd: formatTime(account.BillingCycleEnd),
		PlanStatus:      string(account.PlanStatus),
		CancelledAt:     formatTime(account.CancelledAt),
	}

	switch plan := account.Plan.(type) {
	case domain.ProPlan:
		out.Pro = &proSchema{
			Name:            plan.Name,
			MonthlyCredits:  plan.MonthlyCredits,
			Price:           plan.Price.String(),
			BillingInterval: string(plan.BillingInterval),
		}
	case domain.TeamsPlan:
		out.Teams = toTeamsSchema(plan)
	}

	for _, invoice := range account.Invoices {
		out.Invoices = append(out.Invoices, invoiceSchema{
			ID:          invoice.ID,
			Date:        formatTime(invoice.Date),
			Amount:      invoice.Amount.String(),
			Description: invoice.Description,
			Status:      string(invoice.Status),
		})
	}
	for _, txn := range account.CreditTransactions {
		out.Transactions = append(out.Transactions, transactionSchema{
			ID:          txn.ID,
			Date:        formatTime(txn.Date),
			Credits:     txn.Credits,
			Type:        string(txn.Type),
			Description: txn.Description,
		})
	}
	return out
}

func toTeamsSchema(team domain.TeamsPlan) *teamsSchema {
	out := &teamsSchema{
		TeamName:          team.TeamName,
		PlanName:          team.PlanName,
		Seats:             team.Seats,
		MonthlyCredits:    team.MonthlyCredits,
		SharedCredits:     team.SharedCredits,
		SharedCreditsUsed: team.SharedCreditsUsed,
		ExtraCredits:      team.ExtraCredits,
		Members:           make([]memberSchema, 0, len(team.Members)),
		BillingAdmins:     make([]billingAdminSchema, 0, len(team.BillingAdmins)),
	}
	for _, member := range team.Members {
		out.Members = append(out.Members, memberSchema{
			Email:       member.Email,
			CreditLimit: member.CreditLimit,
			Role:        string(member.Role),
			Status:      string(member.Status),
			JoinedAt:    formatTime(member.JoinedAt),
		})
	}
	for _, admin := range team.BillingAdmins {
		out.BillingAdmins = append(out.BillingAdmins, billingAdminSchema{
			Email:      admin.Email,
			Status:     string(admin.Status),
			InvitedAt:  formatTime(admin.InvitedAt),
			AcceptedAt: formatTime(admin.AcceptedAt),
		})
	}
	return out
}

func fromSchema(file fileSchema) (domain.State, error) {
	state := domain.NewState()
	state.CurrentUser = file.CurrentUser
	for _, entry := range file.Accounts {
		account, err := fromAccountSchema(entry)
		if err != nil {
			return domain.State{}, fmt.Errorf("decode account %s: %w", entry.Email, err)
		}
		state.Users[account.Email] = account
	}
	return state, nil
}

func fromAccountSchema(entry accountSchema) (domain.Account, error) {
	account := domain.NewAccount(entry.Email, entry.Credits)
	account.CreditsUsed = entry.CreditsUsed
	account.ExtraCredits = entry.ExtraCredits
	times := &timeDecoder{}
	account.BillingCycle = times.parse("billing_cycle", entry.BillingCycle)
	account.BillingCycleEnd = times.parse("billing_cycle_end", entry.BillingCycleEnd)
	account.CancelledAt = times.parse("cancelled_at", entry.CancelledAt)

	status, err := domain.ParsePlanStatus(entry.PlanStatus)
	if err != nil {
		return domain.Account{}, err
	}
	account.PlanStatus = status

	tier := domain.TierFree
	if entry.Plan != "" {
		if tier, err = domain.ParseTier(entry.Plan); err != nil {
			return domain.Account{}, err
		}
	}
	switch tier {
	case domain.TierPro:
		if entry.Pro == nil {
			return domain.Account{}, fmt.Errorf("pro account without pro plan")
		}
		price, err := parseAmount(entry.Pro.Price)
		if err != nil {
			return domain.Account{}, err
		}
		account.Plan = domain.ProPlan{
			Name:            entry.Pro.Name,
			MonthlyCredits:  entry.Pro.MonthlyCredits,
			Price:           price,
			BillingInterval: domain.BillingInterval(entry.Pro.BillingInterval),
		}
	case domain.TierTeams:
		if entry.Teams == nil {
			return domain.Account{}, fmt.Errorf("teams account without teams plan")
		}
		account.Plan = fromTeamsSchema(*entry.Teams, times)
	}

	for _, invoice := range entry.Invoices {
		amount, err := parseAmount(invoice.Amount)
		if err != nil {
			return domain.Account{}, err
		}
		account.Invoices = append(account.Invoices, domain.Invoice{
			ID:          invoice.ID,
			Date:        times.parse("invoice date", invoice.Date),
			Amount:      amount,
			Description: invoice.Description,
			Status:      domain.InvoiceStatus(invoice.Status),
		})
	}
	for _, txn := range entry.Transactions {
		account.CreditTransactions = append(account.CreditTransactions, domain.CreditTransaction{
			ID:          txn.ID,
			Date:        times.parse("transaction date", txn.Date),
			Credits:     txn.Credits,
			Type:        domain.TransactionType(txn.Type),
			Description: txn.Description,
		})
	}
	if times.err != nil {
		return domain.Account{}, times.err
	}
	return account, nil
}

func fromTeamsSchema(entry teamsSchema, times *timeDecoder) domain.TeamsPlan {
	team := domain.TeamsPlan{
		TeamName:          entry.TeamName,
		PlanName:          entry.PlanName,
		Seats:             entry.Seats,
		MonthlyCredits:    entry.MonthlyCredits,
		SharedCredits:     entry.SharedCredits,
		SharedCreditsUsed: entry.SharedCreditsUsed,
		ExtraCredits:      entry.ExtraCredits,
		Members:           make([]domain.TeamMember, 0, len(entry.Members)),
		BillingAdmins:     make([]domain.BillingAdmin, 0, len(entry.BillingAdmins)),
	}
	for _, member := range entry.Members {
		team.Members = append(team.Members, domain.TeamMember{
			Email:       member.Email,
			CreditLimit: member.CreditLimit,
			Role:        domain.MemberRole(member.Role),
			Status:      domain.MemberStatus(member.Status),
			JoinedAt:    times.parse("joined_at", member.JoinedAt),
		})
	}
	for _, admin := range entry.BillingAdmins {
		team.BillingAdmins = append(team.BillingAdmins, domain.BillingAdmin{
			Email:      admin.Email,
			Status:     domain.MemberStatus(admin.Status),
			InvitedAt:  times.parse("invited_at", admin.InvitedAt),
			AcceptedAt: times.parse("accepted_at", admin.AcceptedAt),
		})
	}
	return team
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return amount, nil
}

// timeDecoder keeps the first timestamp that failed to parse so a whole
// account can be decoded before checking.
type timeDecoder struct {
	err error
}

func (d *timeDecoder) parse(field, raw string) time.Time {
	if raw == "" || d.err != nil {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, raw, err)
		return time.Time{}
	}

	return parsed.UTC()
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
