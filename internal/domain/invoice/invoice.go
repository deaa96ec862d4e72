package invoice

import (
	"time"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
)

// GUIDPrefix is the identifier prefix of every invoice.
const GUIDPrefix = "IV"

type Status string

const (
	StatusInit          Status = "INIT"
	StatusProcessing    Status = "PROCESSING"
	StatusProcessFailed Status = "PROCESS_FAILED"
	StatusSettled       Status = "SETTLED"
	StatusCanceled      Status = "CANCELED"
	StatusRefunding     Status = "REFUNDING"
	StatusRefunded      Status = "REFUNDED"
	StatusRefundFailed  Status = "REFUND_FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInit, StatusProcessing, StatusProcessFailed, StatusSettled,
		StatusCanceled, StatusRefunding, StatusRefunded, StatusRefundFailed:
		return true
	}
	return false
}

// Updatable reports whether a new payment method may be scheduled
// against an invoice in status s.
func (s Status) Updatable() bool {
	switch s {
	case StatusInit, StatusProcessing, StatusProcessFailed:
		return true
	}
	return false
}

type Invoice struct {
	GUID         string
	CustomerGUID string
	Title        string
	Amount       int64
	Status       Status
	PaymentURI   string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Transactions is filled only by explicit loads and is sorted by
	// ScheduledAt ascending.
	Transactions []transaction.Transaction
}
