package ports

import "time"

type IDGenerator interface {
	InvoiceID() string
	TransactionID(at time.Time) string
}
