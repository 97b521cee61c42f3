package summary

import (
	"fmt"
	"strconv"

	"github.com/bnema/planctl/internal/domain"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const dateLayout = "2006-01-02 15:04"

// RenderInvoices draws the invoice history without the account header.
func RenderInvoices(invoices []domain.Invoice, maxRows int) string {
	return invoiceTable(invoices, maxRows, newStyles())
}

// RenderTransactions draws the credit history without the account header.
func RenderTransactions(txns []domain.CreditTransaction, maxRows int) string {
	return transactionTable(txns, maxRows, newStyles())
}

func invoiceTable(invoices []domain.Invoice, maxRows int, s styles) string {
	if len(invoices) == 0 {
		return s.empty.Render("No invoices yet.")
	}

	rows := make([]table.Row, 0, len(invoices))
	for _, invoice := range tail(invoices, maxRows) {
		rows = append(rows, table.Row{
			invoice.Date.Format(dateLayout),
			invoice.Description,
			"$" + invoice.Amount.StringFixed(2),
			string(invoice.Status),
			invoice.ID,
		})
	}

	return renderTable([]table.Column{
		{Title: "Date", Width: 16},
		{Title: "Description", Width: 36},
		{Title: "Amount", Width: 10},
		{Title: "Status", Width: 8},
		{Title: "ID", Width: 40},
	}, rows, s)
}

func transactionTable(txns []domain.CreditTransaction, maxRows int, s styles) string {
	if len(txns) == 0 {
		return s.empty.Render("No credit activity yet.")
	}

	rows := make([]table.Row, 0, len(txns))
	for _, txn := range tail(txns, maxRows) {
		credits := strconv.FormatInt(txn.Credits, 10)
		if txn.Credits > 0 {
			credits = "+" + credits
		}
		rows = append(rows, table.Row{
			txn.Date.Format(dateLayout),
			string(txn.Type),
			credits,
			txn.Description,
		})
	}

	return renderTable([]table.Column{
		{Title: "Date", Width: 16},
		{Title: "Type", Width: 14},
		{Title: "Credits", Width: 9},
		{Title: "Description", Width: 32},
	}, rows, s)
}

func renderTable(columns []table.Column, rows []table.Row, s styles) string {
	tableStyles := table.DefaultStyles()
	tableStyles.Header = tableStyles.Header.Inherit(s.tableHead).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true)
	tableStyles.Cell = tableStyles.Cell.Inherit(s.tableCell)
	tableStyles.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+2),
		table.WithFocused(false),
		table.WithStyles(tableStyles),
	)
	return t.View()
}

// tail keeps the newest n entries; histories are stored oldest first.
func tail[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func countLabel(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
