package inmemory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

type state struct {
	invoices map[string]invoice.Invoice
	// transactions per invoice, in insertion order
	transactions map[string][]transaction.Transaction
	outbox       []outbox.OutboxEvent
}

func (s *state) clone() *state {
	txs := make(map[string][]transaction.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		txs[k] = slices.Clone(v)
	}
	return &state{
		invoices:     maps.Clone(s.invoices),
		transactions: txs,
		outbox:       slices.Clone(s.outbox),
	}
}

// Store keeps everything in process memory. Atomic units run one at a
// time against a private copy that replaces the shared state on commit.
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{
		state: &state{
			invoices:     make(map[string]invoice.Invoice),
			transactions: make(map[string][]transaction.Transaction),
		},
	}
}

func (s *Store) GetInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.getInvoice(guid)
}

func (s *Store) ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.listTransactions(invoiceGUID), nil
}

func (s *Store) RunAtomic(ctx context.Context, fn func(uow invoice.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&unitOfWork{state: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = staged
	return nil
}

func (s *state) getInvoice(guid string) (*invoice.Invoice, error) {
	inv, ok := s.invoices[guid]
	if !ok {
		return nil, invoice.ErrNotFound
	}
	return &inv, nil
}

func (s *state) listTransactions(invoiceGUID string) []transaction.Transaction {
	txs := slices.Clone(s.transactions[invoiceGUID])
	slices.SortStableFunc(txs, func(a, b transaction.Transaction) int {
		return a.ScheduledAt.Compare(b.ScheduledAt)
	})
	return txs
}

type unitOfWork struct {
	state *state
}

func (u *unitOfWork) GetInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	return u.state.getInvoice(guid)
}

func (u *unitOfWork) ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	return u.state.listTransactions(invoiceGUID), nil
}

func (u *unitOfWork) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, exists := u.state.invoices[inv.GUID]; exists {
		return fmt.Errorf("invoice %s already exists", inv.GUID)
	}
	stored := *inv
	stored.Transactions = nil
	u.state.invoices[inv.GUID] = stored
	return nil
}

func (u *unitOfWork) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, exists := u.state.invoices[inv.GUID]; !exists {
		return invoice.ErrNotFound
	}
	stored := *inv
	stored.Transactions = nil
	u.state.invoices[inv.GUID] = stored
	return nil
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if _, exists := u.state.invoices[tx.InvoiceGUID]; !exists {
		return fmt.Errorf("transaction %s: %w", tx.GUID, invoice.ErrNotFound)
	}
	u.state.transactions[tx.InvoiceGUID] = append(u.state.transactions[tx.InvoiceGUID], *tx)
	return nil
}

func (u *unitOfWork) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	txs := u.state.transactions[tx.InvoiceGUID]
	for i := range txs {
		if txs[i].GUID == tx.GUID {
			txs[i] = *tx
			return nil
		}
	}
	return fmt.Errorf("transaction %s not found", tx.GUID)
}

func (u *unitOfWork) RecordEvent(ctx context.Context, evt event.Event) error {
	row, err := outbox.NewEvent(evt)
	if err != nil {
		return err
	}
	u.state.outbox = append(u.state.outbox, row)
	return nil
}
