package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

func (s *Store) GetInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	return s.getInvoice(ctx, guid)
}

func (s *Store) ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	return s.listTransactions(ctx, invoiceGUID)
}

// RunAtomic runs fn inside a multi-document transaction. The driver
// retries fn on transient errors such as write conflicts, so two units
// touching the same invoice never both commit.
func (s *Store) RunAtomic(ctx context.Context, fn func(uow invoice.UnitOfWork) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(&unitOfWork{store: s, sc: sc})
	})
	return err
}

func (s *Store) getInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	var doc invoiceDocument
	if err := s.invoices.FindOne(ctx, bson.M{"guid": guid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching invoice %s: %w", guid, err)
	}
	return doc.toDomain(), nil
}

func (s *Store) listTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "scheduled_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := s.transactions.Find(ctx, bson.M{"invoice_guid": invoiceGUID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []transaction.Transaction
	for cursor.Next(ctx) {
		var doc transactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding transaction: %w", err)
		}
		txs = append(txs, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return txs, nil
}

// unitOfWork issues every call on the session context so it joins the
// running transaction whatever context the caller passes in.
type unitOfWork struct {
	store *Store
	sc    mongo.SessionContext
}

func (u *unitOfWork) GetInvoice(ctx context.Context, guid string) (*invoice.Invoice, error) {
	return u.store.getInvoice(u.sc, guid)
}

func (u *unitOfWork) ListTransactions(ctx context.Context, invoiceGUID string) ([]transaction.Transaction, error) {
	return u.store.listTransactions(u.sc, invoiceGUID)
}

func (u *unitOfWork) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, err := u.store.invoices.InsertOne(u.sc, fromInvoice(inv)); err != nil {
		return fmt.Errorf("insert invoice failed: %w", err)
	}
	return nil
}

func (u *unitOfWork) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	res, err := u.store.invoices.UpdateOne(u.sc,
		bson.M{"guid": inv.GUID},
		bson.M{"$set": bson.M{
			"title":       inv.Title,
			"status":      string(inv.Status),
			"payment_uri": inv.PaymentURI,
			"updated_at":  inv.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update invoice failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return invoice.ErrNotFound
	}
	return nil
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if _, err := u.store.transactions.InsertOne(u.sc, fromTransaction(tx)); err != nil {
		return fmt.Errorf("insert transaction failed: %w", err)
	}
	return nil
}

func (u *unitOfWork) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	res, err := u.store.transactions.UpdateOne(u.sc,
		bson.M{"guid": tx.GUID},
		bson.M{"$set": bson.M{
			"status":     string(tx.Status),
			"updated_at": tx.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update transaction failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("transaction %s not found", tx.GUID)
	}
	return nil
}

func (u *unitOfWork) RecordEvent(ctx context.Context, evt event.Event) error {
	row, err := outbox.NewEvent(evt)
	if err != nil {
		return err
	}
	if _, err := u.store.outbox.InsertOne(u.sc, fromOutboxEvent(row)); err != nil {
		return fmt.Errorf("insert outbox event failed: %w", err)
	}
	return nil
}
