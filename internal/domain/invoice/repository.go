package invoice

import (
	"context"
	"errors"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
)

var ErrNotFound = errors.New("invoice not found")

type Reader interface {
	// GetInvoice returns ErrNotFound when no invoice has the guid. The
	// returned invoice has no transactions loaded.
	GetInvoice(ctx context.Context, guid string) (*Invoice, error)
	// ListTransactions returns the invoice's transactions ordered by
	// ScheduledAt ascending, ties kept in insertion order.
	ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error)
}

// UnitOfWork is the view of the store inside one atomic unit. Nothing
// written through it is visible outside until the unit commits.
type UnitOfWork interface {
	Reader
	CreateInvoice(ctx context.Context, inv *Invoice) error
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	CreateTransaction(ctx context.Context, tx *transaction.Transaction) error
	UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error
	RecordEvent(ctx context.Context, evt event.Event) error
}

type Repository interface {
	Reader
	// RunAtomic commits every write made through the UnitOfWork when fn
	// returns nil and discards all of them otherwise.
	RunAtomic(ctx context.Context, fn func(uow UnitOfWork) error) error
}
