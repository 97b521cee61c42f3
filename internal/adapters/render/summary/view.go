package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/planctl/internal/application"
	"github.com/bnema/planctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const creditBarWidth = 24

// View is everything the overview shows for one account.
type View struct {
	Summary      application.Summary
	Invoices     []domain.Invoice
	Transactions []domain.CreditTransaction
}

type RenderOptions struct {
	Now time.Time
	// MaxRows caps each history table to its most recent entries. Zero shows all.
	MaxRows int
}

func renderView(view View, opts RenderOptions, s styles) string {
	sum := view.Summary
	lines := []string{
		s.title.Render("planctl"),
		s.header.Render(headerLine(sum)),
		s.section.Render(renderAccount(sum, opts, s)),
	}

	lines = append(lines,
		s.section.Render(s.title.Render("Invoices")+" "+s.header.Render(countLabel(len(view.Invoices), "invoice", "invoices"))),
		invoiceTable(view.Invoices, opts.MaxRows, s),
		s.section.Render(s.title.Render("Credit history")+" "+s.header.Render(countLabel(len(view.Transactions), "entry", "entries"))),
		transactionTable(view.Transactions, opts.MaxRows, s),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(sum application.Summary) string {
	if sum.LoggedInAs != "" && sum.LoggedInAs != sum.Email {
		label := "viewing as"
		if sum.BillingAdminView {
			label = "billing admin for"
		}
		return fmt.Sprintf("logged in as %s, %s %s", sum.LoggedInAs, label, sum.Email)
	}
	return "logged in as " + sum.Email
}

func renderAccount(sum application.Summary, opts RenderOptions, s styles) string {
	parts := []string{
		s.account.Render(fmt.Sprintf("Account: %s (%s)", sum.Email, planLabel(sum))),
		statusLine(sum, s),
	}

	if !sum.BillingAdminView {
		parts = append(parts, creditLine(sum, s))
		if sum.ExtraCredits > 0 {
			parts = append(parts, s.detail.Render(fmt.Sprintf("extra credits: %s", formatCredits(sum.ExtraCredits))))
		}
	}

	if line := cycleLine(sum, opts.Now); line != "" {
		parts = append(parts, s.detail.Render(line))
	}

	if sum.Tier == domain.TierTeams {
		parts = append(parts, s.detail.Render(teamLine(sum)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func planLabel(sum application.Summary) string {
	switch sum.Tier {
	case domain.TierPro:
		label := "Pro"
		if sum.PlanName != "" {
			label = sum.PlanName
		}
		if sum.BillingInterval != "" {
			label += ", " + sum.BillingInterval
		}
		return label
	case domain.TierTeams:
		if sum.PlanName != "" {
			return sum.PlanName
		}
		return "Teams"
	default:
		return "Free"
	}
}

func statusLine(sum application.Summary, s styles) string {
	status := s.key.Render("status:") + " " + s.detail.Render(string(sum.Status))
	switch sum.Status {
	case domain.StatusCancellationPending:
		status += " " + s.badge.Render("[ends with this cycle]")
	case domain.StatusCancelled:
		status += " " + s.warning.Render("[cancelled]")
	}
	return status
}

func creditLine(sum application.Summary, s styles) string {
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("credits:"),
		" ",
		renderProgressBar(sum.RemainingCredits, sum.TotalCredits, creditBarWidth, s),
		" ",
		s.detail.Render(fmt.Sprintf("%s / %s left", formatCredits(sum.RemainingCredits), formatCredits(sum.TotalCredits))),
	)
	if sum.LowCredits {
		line += " " + s.warning.Render("[low]")
	}
	return line
}

func cycleLine(sum application.Summary, now time.Time) string {
	if sum.BillingCycleEnd == nil {
		return ""
	}
	end := sum.BillingCycleEnd.Format("02 Jan 2006")
	if sum.CyclePassed {
		return fmt.Sprintf("billing cycle ended %s", end)
	}

	verb := "renews"
	if sum.Status != domain.StatusActive {
		verb = "ends"
	}
	if now.IsZero() {
		return fmt.Sprintf("%s on %s", verb, end)
	}
	return fmt.Sprintf("%s in %s (%s)", verb, pluralDays(sum.DaysUntilExpiry), end)
}

func teamLine(sum application.Summary) string {
	line := fmt.Sprintf("team: %s (%d/%d seats)", sum.TeamName, sum.SeatsUsed, sum.Seats)
	if sum.Role != "" {
		line += ", role " + string(sum.Role)
	}
	return line
}

func pluralDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func renderProgressBar(remaining, total int64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := 0.0
	if total > 0 {
		fraction = float64(remaining) / float64(total)
	}
	filled := int(math.Round(float64(width) * fraction))
	filled = max(0, min(width, filled))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

// formatCredits groups thousands: 12500 -> "12,500".
func formatCredits(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
