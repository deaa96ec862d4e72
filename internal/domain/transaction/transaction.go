package transaction

import "time"

// GUIDPrefix is the identifier prefix of every transaction.
const GUIDPrefix = "IT"

type Type string

const (
	TypeCharge Type = "CHARGE"
	TypeRefund Type = "REFUND"
)

type Class string

const (
	ClassInvoice      Class = "INVOICE"
	ClassSubscription Class = "SUBSCRIPTION"
)

type Status string

const (
	StatusInit       Status = "INIT"
	StatusProcessing Status = "PROCESSING"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInit, StatusProcessing, StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no payment processing happens past s.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Transaction is one charge or refund attempt owned by an invoice.
type Transaction struct {
	GUID        string
	InvoiceGUID string
	Type        Type
	Class       Class
	Status      Status
	Amount      int64
	PaymentURI  string
	ScheduledAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds a pending attempt. The caller supplies the GUID and the
// operation instant so a whole unit of work shares one timestamp.
func New(guid, invoiceGUID string, typ Type, cls Class, amount int64, paymentURI string, scheduledAt time.Time) *Transaction {
	return &Transaction{
		GUID:        guid,
		InvoiceGUID: invoiceGUID,
		Type:        typ,
		Class:       cls,
		Status:      StatusInit,
		Amount:      amount,
		PaymentURI:  paymentURI,
		ScheduledAt: scheduledAt,
		CreatedAt:   scheduledAt,
		UpdatedAt:   scheduledAt,
	}
}

// Latest returns the most recently scheduled transaction of a history
// sorted by ScheduledAt ascending, or nil for an empty history.
func Latest(history []Transaction) *Transaction {
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}
