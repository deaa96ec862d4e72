package event

import "time"

type Type string

const (
	InvoiceCreated       Type = "INVOICE_CREATED"
	TransactionScheduled Type = "TRANSACTION_SCHEDULED"
	TransactionCanceled  Type = "TRANSACTION_CANCELED"
)

type Event struct {
	Type       Type
	Payload    any
	OccurredAt time.Time
}
