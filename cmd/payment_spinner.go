package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var errPaymentCancelled = errors.New("payment cancelled")

// paymentRequest is what the payment step shows before money moves.
type paymentRequest struct {
	Title       string
	Description string
	Amount      decimal.Decimal
}

type paymentPhase int

const (
	phaseConfirm paymentPhase = iota
	phaseAuthorizing
	phaseApproved
	phaseDeclined
	phaseCancelled
)

type paymentDoneMsg struct {
	err error
}

var (
	paymentTitleStyle   = lipgloss.NewStyle().Bold(true)
	paymentMutedStyle   = lipgloss.NewStyle().Faint(true)
	paymentAmountStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	paymentApproveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	paymentDeclineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// paymentModel asks for authorization, then commits the checkout while the
// spinner ticks. The last frame stays on screen as the receipt line.
type paymentModel struct {
	spinner spinner.Model
	request paymentRequest
	confirm tea.Cmd
	phase   paymentPhase
	err     error
}

func newPaymentModel(request paymentRequest, confirm tea.Cmd, prompt bool) paymentModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("42"))),
	)

	phase := phaseAuthorizing
	if prompt {
		phase = phaseConfirm
	}

	return paymentModel{
		spinner: s,
		request: request,
		confirm: confirm,
		phase:   phase,
	}
}

func (m paymentModel) Init() tea.Cmd {
	if m.phase == phaseConfirm {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.confirm)
}

func (m paymentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.phase != phaseAuthorizing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case paymentDoneMsg:
		m.err = msg.err
		m.phase = phaseApproved
		if msg.err != nil {
			m.phase = phaseDeclined
		}
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m paymentModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Once authorizing, the checkout is already committing.
	if m.phase != phaseConfirm {
		return m, nil
	}

	switch msg.String() {
	case "enter", "y":
		m.phase = phaseAuthorizing
		return m, tea.Batch(m.spinner.Tick, m.confirm)
	case "esc", "n", "q", "ctrl+c":
		m.phase = phaseCancelled
		m.err = errPaymentCancelled
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m paymentModel) View() string {
	amount := "$" + m.request.Amount.StringFixed(2)

	switch m.phase {
	case phaseApproved:
		return paymentApproveStyle.Render(fmt.Sprintf("✓ Payment of %s authorized", amount)) + "\n"
	case phaseDeclined:
		return paymentDeclineStyle.Render(fmt.Sprintf("✗ Payment of %s declined", amount)) + "\n"
	case phaseCancelled:
		return paymentMutedStyle.Render("Payment cancelled") + "\n"
	}

	var b strings.Builder
	b.WriteString(paymentTitleStyle.Render(m.request.Title))
	b.WriteString("\n")
	if m.request.Description != "" {
		b.WriteString(paymentMutedStyle.Render(m.request.Description))
		b.WriteString("\n")
	}
	b.WriteString(paymentAmountStyle.Render(amount))
	b.WriteString(paymentMutedStyle.Render(" total"))
	b.WriteString("\n\n")

	if m.phase == phaseConfirm {
		b.WriteString(paymentMutedStyle.Render("enter authorize payment • esc cancel"))
	} else {
		b.WriteString(fmt.Sprintf("%s Authorizing payment...", m.spinner.View()))
	}
	return b.String()
}

// runPayment shows the payment step on output. Without prompt the checkout
// starts right away and stdin is left alone.
func runPayment(ctx context.Context, prompt bool, output io.Writer, request paymentRequest, confirm func(context.Context) error) error {
	confirmCmd := func() tea.Msg {
		return paymentDoneMsg{err: confirm(ctx)}
	}

	opts := []tea.ProgramOption{
		tea.WithOutput(output),
		tea.WithContext(ctx),
	}
	if !prompt {
		opts = append(opts, tea.WithInput(nil))
	}

	p := tea.NewProgram(newPaymentModel(request, confirmCmd, prompt), opts...)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(paymentModel)
	if !ok {
		return fmt.Errorf("unexpected final payment model type %T", finalModel)
	}

	return result.err
}
