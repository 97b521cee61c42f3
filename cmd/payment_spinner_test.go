package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaymentRequest() paymentRequest {
	return paymentRequest{
		Title:       "Subscribe to Pro Growth",
		Description: "2500 credits per month, billed monthly",
		Amount:      decimal.NewFromInt(45),
	}
}

func TestPaymentModelWaitsForAuthorization(t *testing.T) {
	confirmed := false
	confirm := func() tea.Msg {
		confirmed = true
		return paymentDoneMsg{}
	}

	m := newPaymentModel(testPaymentRequest(), confirm, true)
	assert.Nil(t, m.Init())
	assert.Contains(t, m.View(), "Subscribe to Pro Growth")
	assert.Contains(t, m.View(), "$45.00")
	assert.Contains(t, m.View(), "enter authorize payment")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(paymentModel)
	require.NotNil(t, cmd)
	assert.Equal(t, phaseAuthorizing, m.phase)
	assert.Contains(t, m.View(), "Authorizing payment...")
	assert.False(t, confirmed, "checkout runs through the returned command")

	next, _ = m.Update(paymentDoneMsg{})
	m = next.(paymentModel)
	assert.Equal(t, phaseApproved, m.phase)
	assert.NoError(t, m.err)
	assert.Contains(t, m.View(), "✓ Payment of $45.00 authorized")
}

func TestPaymentModelCancelBeforeAuthorizing(t *testing.T) {
	m := newPaymentModel(testPaymentRequest(), func() tea.Msg { return paymentDoneMsg{} }, true)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(paymentModel)
	require.NotNil(t, cmd)
	assert.Equal(t, phaseCancelled, m.phase)
	assert.ErrorIs(t, m.err, errPaymentCancelled)
	assert.Contains(t, m.View(), "Payment cancelled")
}

func TestPaymentModelIgnoresKeysWhileAuthorizing(t *testing.T) {
	m := newPaymentModel(testPaymentRequest(), func() tea.Msg { return paymentDoneMsg{} }, false)
	assert.NotNil(t, m.Init())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(paymentModel)
	assert.Nil(t, cmd)
	assert.Equal(t, phaseAuthorizing, m.phase)
}

func TestPaymentModelShowsDecline(t *testing.T) {
	m := newPaymentModel(testPaymentRequest(), nil, false)

	declined := errors.New("cannot subscribe to pro: wrong plan")
	next, _ := m.Update(paymentDoneMsg{err: declined})
	m = next.(paymentModel)
	assert.Equal(t, phaseDeclined, m.phase)
	assert.ErrorIs(t, m.err, declined)
	assert.Contains(t, m.View(), "✗ Payment of $45.00 declined")
}

func TestRunPaymentWithoutPromptReturnsCheckoutError(t *testing.T) {
	declined := errors.New("no free seat")
	var out bytes.Buffer

	err := runPayment(context.Background(), false, &out, testPaymentRequest(), func(context.Context) error {
		return declined
	})
	assert.ErrorIs(t, err, declined)
}

func TestYesFlagIsAccepted(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "credits", "buy", "500", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "bought 500 credits for $15.00\n", stdout)
}
