// Package ids issues identifiers for invoices and credit transactions.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/bnema/planctl/internal/ports"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	invoicePrefix     = "INV-"
	transactionPrefix = "TXN-"
)

// Generator hands out random invoice ids and time-ordered transaction ids.
// Transaction ids issued for the same instant still sort in issue order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var _ ports.IDGenerator = (*Generator)(nil)

func New() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *Generator) InvoiceID() string {
	return invoicePrefix + uuid.NewString()
}

func (g *Generator) TransactionID(at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return transactionPrefix + ulid.MustNew(ulid.Timestamp(at), g.entropy).String()
}
