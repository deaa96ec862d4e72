package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	domainInvoice "github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/metrics"
)

type Clock interface {
	Now() time.Time
}

type GUIDGenerator interface {
	NewGUID(prefix string) string
}

type Service struct {
	Repo    domainInvoice.Repository
	Clock   Clock
	GUIDs   GUIDGenerator
	Logger  logging.Logger
	Metrics *metrics.Counters
}

type CreateParams struct {
	CustomerGUID string
	Amount       int64
	Title        string
	// PaymentURI, when set, schedules the first charge right away.
	PaymentURI string
}

// Create stores a new invoice and returns its guid. The customer is
// trusted to exist.
func (s *Service) Create(ctx context.Context, p CreateParams) (string, error) {
	if p.Amount <= 0 {
		return "", ErrInvalidAmount
	}

	now := s.Clock.Now()
	inv := &domainInvoice.Invoice{
		GUID:         s.GUIDs.NewGUID(domainInvoice.GUIDPrefix),
		CustomerGUID: p.CustomerGUID,
		Title:        p.Title,
		Amount:       p.Amount,
		Status:       domainInvoice.StatusInit,
		PaymentURI:   p.PaymentURI,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var scheduled *transaction.Transaction
	err := s.Repo.RunAtomic(ctx, func(uow domainInvoice.UnitOfWork) error {
		if p.PaymentURI != "" {
			inv.Status = domainInvoice.StatusProcessing
		}

		if err := uow.CreateInvoice(ctx, inv); err != nil {
			return err
		}

		if err := uow.RecordEvent(ctx, event.Event{
			Type: event.InvoiceCreated,
			Payload: event.InvoiceCreatedPayload{
				InvoiceGUID:  inv.GUID,
				CustomerGUID: inv.CustomerGUID,
				Amount:       inv.Amount,
			},
			OccurredAt: now,
		}); err != nil {
			return err
		}

		if p.PaymentURI == "" {
			return nil
		}

		tx, err := s.schedule(ctx, uow, inv, now)
		scheduled = tx
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create invoice: %w", err)
	}

	s.Metrics.IncInvoicesCreated()
	s.Logger.Info("invoice created", map[string]any{
		"invoice-guid":  inv.GUID,
		"customer-guid": inv.CustomerGUID,
		"status":        inv.Status,
	})
	if scheduled != nil {
		s.logScheduled(scheduled)
	}

	return inv.GUID, nil
}

// Get returns the invoice with its transactions sorted by schedule time.
// A missing invoice yields (nil, nil) unless raiseError is set, in which
// case ErrNotFound is returned.
func (s *Service) Get(ctx context.Context, guid string, raiseError bool) (*domainInvoice.Invoice, error) {
	inv, err := s.Repo.GetInvoice(ctx, guid)
	if errors.Is(err, domainInvoice.ErrNotFound) {
		if raiseError {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, guid)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	txs, err := s.Repo.ListTransactions(ctx, guid)
	if err != nil {
		return nil, err
	}
	inv.Transactions = txs

	return inv, nil
}

// Update supersedes the invoice's payment method. A still pending
// latest attempt is canceled, any other history is left as is, and a
// new attempt is scheduled for paymentURI.
func (s *Service) Update(ctx context.Context, guid, paymentURI string) error {
	if paymentURI == "" {
		return ErrMissingPaymentURI
	}

	now := s.Clock.Now()

	var canceled, scheduled *transaction.Transaction
	err := s.Repo.RunAtomic(ctx, func(uow domainInvoice.UnitOfWork) error {
		inv, err := uow.GetInvoice(ctx, guid)
		if errors.Is(err, domainInvoice.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, guid)
		}
		if err != nil {
			return err
		}

		if !inv.Status.Updatable() {
			return fmt.Errorf("%w: invoice %s is %s", ErrInvalidOperation, guid, inv.Status)
		}

		history, err := uow.ListTransactions(ctx, guid)
		if err != nil {
			return err
		}

		canceled, err = cancelPending(ctx, uow, history, now)
		if err != nil {
			return err
		}

		inv.Status = domainInvoice.StatusProcessing
		inv.PaymentURI = paymentURI
		inv.UpdatedAt = now
		if err := uow.UpdateInvoice(ctx, inv); err != nil {
			return err
		}

		scheduled, err = s.schedule(ctx, uow, inv, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidOperation) {
			s.Metrics.IncUpdatesRejected()
			s.Logger.Error("invoice update rejected", map[string]any{
				"invoice-guid": guid,
				"error":        err,
			})
			return err
		}
		return fmt.Errorf("update invoice: %w", err)
	}

	if canceled != nil {
		s.Metrics.IncTransactionsCanceled()
		s.Logger.Info("transaction canceled", map[string]any{
			"invoice-guid":     guid,
			"transaction-guid": canceled.GUID,
		})
	}
	s.logScheduled(scheduled)

	return nil
}

// cancelPending cancels the latest attempt of history when nobody has
// acted on it yet. Attempts that already reached an outcome are kept.
func cancelPending(ctx context.Context, uow domainInvoice.UnitOfWork, history []transaction.Transaction, now time.Time) (*transaction.Transaction, error) {
	latest := transaction.Latest(history)
	if latest == nil || latest.Status != transaction.StatusInit {
		return nil, nil
	}

	latest.Status = transaction.StatusCanceled
	latest.UpdatedAt = now
	if err := uow.UpdateTransaction(ctx, latest); err != nil {
		return nil, err
	}

	err := uow.RecordEvent(ctx, event.Event{
		Type: event.TransactionCanceled,
		Payload: event.TransactionCanceledPayload{
			InvoiceGUID:     latest.InvoiceGUID,
			TransactionGUID: latest.GUID,
		},
		OccurredAt: now,
	})
	return latest, err
}

func (s *Service) schedule(ctx context.Context, uow domainInvoice.UnitOfWork, inv *domainInvoice.Invoice, now time.Time) (*transaction.Transaction, error) {
	tx := transaction.New(
		s.GUIDs.NewGUID(transaction.GUIDPrefix),
		inv.GUID,
		transaction.TypeCharge,
		transaction.ClassInvoice,
		inv.Amount,
		inv.PaymentURI,
		now,
	)

	if err := uow.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	err := uow.RecordEvent(ctx, event.Event{
		Type: event.TransactionScheduled,
		Payload: event.TransactionScheduledPayload{
			InvoiceGUID:     inv.GUID,
			TransactionGUID: tx.GUID,
			Amount:          tx.Amount,
			PaymentURI:      tx.PaymentURI,
		},
		OccurredAt: now,
	})
	return tx, err
}

func (s *Service) logScheduled(tx *transaction.Transaction) {
	s.Metrics.IncTransactionsScheduled()
	s.Logger.Info("transaction scheduled", map[string]any{
		"invoice-guid":     tx.InvoiceGUID,
		"transaction-guid": tx.GUID,
		"payment-uri":      tx.PaymentURI,
	})
}
