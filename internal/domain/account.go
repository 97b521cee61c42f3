package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string
type TransactionType string

const (
	InvoicePaid    InvoiceStatus = "paid"
	InvoicePending InvoiceStatus = "pending"
	InvoiceFailed  InvoiceStatus = "failed"

	TxSignup       TransactionType = "signup"
	TxDaily        TransactionType = "daily"
	TxPurchased    TransactionType = "purchased"
	TxRollover     TransactionType = "rollover"
	TxPlanChange   TransactionType = "plan_change"
	TxExpired      TransactionType = "expired"
	TxTransferred  TransactionType = "transferred"
	TxExtraCredits TransactionType = "extra_credits"
)

// Account is the billing record of one email identity. Accounts are treated
// as values: callers clone before mutating so readers never see partial edits.
type Account struct {
	Email              string
	Plan               Plan
	Credits            int64
	CreditsUsed        int64
	ExtraCredits       int64
	BillingCycle       time.Time
	BillingCycleEnd    time.Time
	PlanStatus         PlanStatus
	CancelledAt        time.Time
	Invoices           []Invoice
	CreditTransactions []CreditTransaction
}

type Invoice struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Status      InvoiceStatus
}

type CreditTransaction struct {
	ID          string
	Date        time.Time
	Credits     int64
	Type        TransactionType
	Description string
}

func NewAccount(email string, initialCredits int64) Account {
	return Account{
		Email:              email,
		Plan:               FreePlan{},
		Credits:            initialCredits,
		Invoices:           []Invoice{},
		CreditTransactions: []CreditTransaction{},
	}
}

func (a Account) Tier() PlanTier {
	if a.Plan == nil {
		return TierFree
	}
	return a.Plan.Tier()
}

func (a Account) Status() PlanStatus {
	if a.PlanStatus == "" {
		return StatusActive
	}
	return a.PlanStatus
}

func (a Account) Pro() (ProPlan, bool) {
	pro, ok := a.Plan.(ProPlan)
	return pro, ok
}

func (a Account) Teams() (TeamsPlan, bool) {
	team, ok := a.Plan.(TeamsPlan)
	return team, ok
}

// Available is the unspent individual balance, never negative.
func (a Account) Available() int64 {
	return max(0, a.Credits-a.CreditsUsed)
}

func (a Account) Clone() Account {
	out := a
	if a.Plan != nil {
		out.Plan = a.Plan.clonePlan()
	} else {
		out.Plan = FreePlan{}
	}
	out.Invoices = append([]Invoice{}, a.Invoices...)
	out.CreditTransactions = append([]CreditTransaction{}, a.CreditTransactions...)
	return out
}

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TxSignup, TxDaily, TxPurchased, TxRollover, TxPlanChange, TxExpired, TxTransferred, TxExtraCredits:
		return true
	default:
		return false
	}
}

func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoicePaid, InvoicePending, InvoiceFailed:
		return true
	default:
		return false
	}
}
