package inmemory

import (
	"fmt"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
)

// ForceInvoiceStatus overwrites a stored status the way the payment
// processor would. Test fixtures only.
func (s *Store) ForceInvoiceStatus(guid string, status invoice.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.state.invoices[guid]
	if !ok {
		return invoice.ErrNotFound
	}
	inv.Status = status
	s.state.invoices[guid] = inv
	return nil
}

// ForceTransactionStatus overwrites a stored transaction status. Test
// fixtures only.
func (s *Store) ForceTransactionStatus(guid string, status transaction.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, txs := range s.state.transactions {
		for i := range txs {
			if txs[i].GUID == guid {
				txs[i].Status = status
				return nil
			}
		}
	}
	return fmt.Errorf("transaction %s not found", guid)
}
