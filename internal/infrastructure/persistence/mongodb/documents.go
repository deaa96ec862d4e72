package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

type invoiceDocument struct {
	GUID         string    `bson:"guid"`
	CustomerGUID string    `bson:"customer_guid"`
	Title        string    `bson:"title"`
	Amount       int64     `bson:"amount"`
	Status       string    `bson:"status"`
	PaymentURI   string    `bson:"payment_uri"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func fromInvoice(inv *invoice.Invoice) invoiceDocument {
	return invoiceDocument{
		GUID:         inv.GUID,
		CustomerGUID: inv.CustomerGUID,
		Title:        inv.Title,
		Amount:       inv.Amount,
		Status:       string(inv.Status),
		PaymentURI:   inv.PaymentURI,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

func (d invoiceDocument) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		GUID:         d.GUID,
		CustomerGUID: d.CustomerGUID,
		Title:        d.Title,
		Amount:       d.Amount,
		Status:       invoice.Status(d.Status),
		PaymentURI:   d.PaymentURI,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// transactionDocument relies on the generated ObjectID to break ties
// between transactions scheduled at the same instant.
type transactionDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	GUID        string             `bson:"guid"`
	InvoiceGUID string             `bson:"invoice_guid"`
	Type        string             `bson:"transaction_type"`
	Class       string             `bson:"transaction_cls"`
	Status      string             `bson:"status"`
	Amount      int64              `bson:"amount"`
	PaymentURI  string             `bson:"payment_uri"`
	ScheduledAt time.Time          `bson:"scheduled_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func fromTransaction(tx *transaction.Transaction) transactionDocument {
	return transactionDocument{
		ID:          primitive.NewObjectID(),
		GUID:        tx.GUID,
		InvoiceGUID: tx.InvoiceGUID,
		Type:        string(tx.Type),
		Class:       string(tx.Class),
		Status:      string(tx.Status),
		Amount:      tx.Amount,
		PaymentURI:  tx.PaymentURI,
		ScheduledAt: tx.ScheduledAt,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func (d transactionDocument) toDomain() transaction.Transaction {
	return transaction.Transaction{
		GUID:        d.GUID,
		InvoiceGUID: d.InvoiceGUID,
		Type:        transaction.Type(d.Type),
		Class:       transaction.Class(d.Class),
		Status:      transaction.Status(d.Status),
		Amount:      d.Amount,
		PaymentURI:  d.PaymentURI,
		ScheduledAt: d.ScheduledAt.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type outboxDocument struct {
	Seq       primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"id"`
	Type      string             `bson:"event_type"`
	Payload   []byte             `bson:"payload"`
	Published bool               `bson:"published"`
	CreatedAt time.Time          `bson:"created_at"`
}

func fromOutboxEvent(evt outbox.OutboxEvent) outboxDocument {
	return outboxDocument{
		Seq:       primitive.NewObjectID(),
		ID:        evt.ID,
		Type:      string(evt.Type),
		Payload:   evt.Payload,
		Published: evt.Published,
		CreatedAt: evt.CreatedAt,
	}
}

func (d outboxDocument) toDomain() outbox.OutboxEvent {
	return outbox.OutboxEvent{
		ID:        d.ID,
		Type:      event.Type(d.Type),
		Payload:   d.Payload,
		Published: d.Published,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
