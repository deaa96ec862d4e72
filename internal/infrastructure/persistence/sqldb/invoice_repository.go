package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	invoiceColumns = `guid, customer_guid, title, amount, status, payment_uri, created_at, updated_at`

	transactionColumns = `guid, invoice_guid, transaction_type, transaction_cls, status,
		amount, payment_uri, scheduled_at, created_at, updated_at`
)

func (s *Store) GetInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	return getInvoice(ctx, s.db, s.dialect, guid, "")
}

func (s *Store) ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	return listTransactions(ctx, s.db, s.dialect, invoiceGUID)
}

func (s *Store) RunAtomic(ctx context.Context, fn func(uow invoice.UnitOfWork) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&unitOfWork{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	return tx.Commit()
}

func getInvoice(ctx context.Context, q querier, d dialect, guid, suffix string) (*invoice.Invoice, error) {
	row := q.QueryRowContext(ctx, d.rebind(
		`SELECT `+invoiceColumns+`
		 FROM invoices
		 WHERE guid = ?`+suffix),
		guid,
	)

	var inv invoice.Invoice
	var status string

	if err := row.Scan(
		&inv.GUID,
		&inv.CustomerGUID,
		&inv.Title,
		&inv.Amount,
		&status,
		&inv.PaymentURI,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, err
	}

	inv.Status = invoice.Status(status)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return &inv, nil
}

func listTransactions(ctx context.Context, q querier, d dialect, invoiceGUID string) ([]transaction.Transaction, error) {
	rows, err := q.QueryContext(ctx, d.rebind(
		`SELECT `+transactionColumns+`
		 FROM invoice_transactions
		 WHERE invoice_guid = ?
		 ORDER BY scheduled_at, seq`),
		invoiceGUID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []transaction.Transaction

	for rows.Next() {
		var tx transaction.Transaction
		var typ, cls, status string

		if err := rows.Scan(
			&tx.GUID,
			&tx.InvoiceGUID,
			&typ,
			&cls,
			&status,
			&tx.Amount,
			&tx.PaymentURI,
			&tx.ScheduledAt,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		); err != nil {
			return nil, err
		}

		tx.Type = transaction.Type(typ)
		tx.Class = transaction.Class(cls)
		tx.Status = transaction.Status(status)
		tx.ScheduledAt = tx.ScheduledAt.UTC()
		tx.CreatedAt = tx.CreatedAt.UTC()
		tx.UpdatedAt = tx.UpdatedAt.UTC()
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

type unitOfWork struct {
	tx      *sql.Tx
	dialect dialect
}

// GetInvoice locks the row on dialects that support it so concurrent
// units on the same invoice run one after the other.
func (u *unitOfWork) GetInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	return getInvoice(ctx, u.tx, u.dialect, guid, u.dialect.forUpdate)
}

func (u *unitOfWork) ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	return listTransactions(ctx, u.tx, u.dialect, invoiceGUID)
}

func (u *unitOfWork) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := u.tx.ExecContext(ctx, u.dialect.rebind(
		`INSERT INTO invoices (`+invoiceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.GUID,
		inv.CustomerGUID,
		inv.Title,
		inv.Amount,
		string(inv.Status),
		inv.PaymentURI,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	return err
}

func (u *unitOfWork) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	res, err := u.tx.ExecContext(ctx, u.dialect.rebind(
		`UPDATE invoices
		 SET title = ?, status = ?, payment_uri = ?, updated_at = ?
		 WHERE guid = ?`),
		inv.Title,
		string(inv.Status),
		inv.PaymentURI,
		inv.UpdatedAt,
		inv.GUID,
	)
	if err != nil {
		return err
	}
	return expectOne(res, invoice.ErrNotFound)
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	_, err := u.tx.ExecContext(ctx, u.dialect.rebind(
		`INSERT INTO invoice_transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		tx.GUID,
		tx.InvoiceGUID,
		string(tx.Type),
		string(tx.Class),
		string(tx.Status),
		tx.Amount,
		tx.PaymentURI,
		tx.ScheduledAt,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	return err
}

func (u *unitOfWork) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	res, err := u.tx.ExecContext(ctx, u.dialect.rebind(
		`UPDATE invoice_transactions
		 SET status = ?, updated_at = ?
		 WHERE guid = ?`),
		string(tx.Status),
		tx.UpdatedAt,
		tx.GUID,
	)
	if err != nil {
		return err
	}
	return expectOne(res, fmt.Errorf("transaction %s not found", tx.GUID))
}

func (u *unitOfWork) RecordEvent(ctx context.Context, evt event.Event) error {
	row, err := outbox.NewEvent(evt)
	if err != nil {
		return err
	}

	_, err = u.tx.ExecContext(ctx, u.dialect.rebind(
		`INSERT INTO outbox_events (id, event_type, payload, published, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		row.ID,
		string(row.Type),
		row.Payload,
		0,
		row.CreatedAt,
	)
	return err
}

func expectOne(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
