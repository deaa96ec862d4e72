package metrics

import "sync/atomic"

type Counters struct {
	InvoicesCreated       uint64
	TransactionsScheduled uint64
	TransactionsCanceled  uint64
	UpdatesRejected       uint64
}

func (c *Counters) IncInvoicesCreated() {
	atomic.AddUint64(&c.InvoicesCreated, 1)
}

func (c *Counters) IncTransactionsScheduled() {
	atomic.AddUint64(&c.TransactionsScheduled, 1)
}

func (c *Counters) IncTransactionsCanceled() {
	atomic.AddUint64(&c.TransactionsCanceled, 1)
}

func (c *Counters) IncUpdatesRejected() {
	atomic.AddUint64(&c.UpdatesRejected, 1)
}

type Snapshot struct {
	InvoicesCreated       uint64 `json:"invoices_created"`
	TransactionsScheduled uint64 `json:"transactions_scheduled"`
	TransactionsCanceled  uint64 `json:"transactions_canceled"`
	UpdatesRejected       uint64 `json:"updates_rejected"`
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		InvoicesCreated:       atomic.LoadUint64(&c.InvoicesCreated),
		TransactionsScheduled: atomic.LoadUint64(&c.TransactionsScheduled),
		TransactionsCanceled:  atomic.LoadUint64(&c.TransactionsCanceled),
		UpdatesRejected:       atomic.LoadUint64(&c.UpdatesRejected),
	}
}
