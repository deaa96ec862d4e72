package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	invoicesCollection     = "invoices"
	transactionsCollection = "invoice_transactions"
	outboxCollection       = "outbox_events"
)

// Store keeps invoices, their transactions and outbox events in three
// collections. Atomic units need a replica set or sharded cluster since
// they run as multi-document transactions.
type Store struct {
	client       *mongo.Client
	invoices     *mongo.Collection
	transactions *mongo.Collection
	outbox       *mongo.Collection
}

func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:       client,
		invoices:     db.Collection(invoicesCollection),
		transactions: db.Collection(transactionsCollection),
		outbox:       db.Collection(outboxCollection),
	}
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Migrate creates the indexes the store relies on. Collections are
// created implicitly on first write.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.invoices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guid", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongodb: invoices index: %w", err)
	}

	if _, err := s.transactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "guid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "invoice_guid", Value: 1},
				{Key: "scheduled_at", Value: 1},
				{Key: "_id", Value: 1},
			},
		},
	}); err != nil {
		return fmt.Errorf("mongodb: transactions index: %w", err)
	}

	if _, err := s.outbox.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "published", Value: 1}, {Key: "_id", Value: 1}},
		},
	}); err != nil {
		return fmt.Errorf("mongodb: outbox index: %w", err)
	}

	return nil
}

// Drop removes the whole database. Used to clean up test databases.
func (s *Store) Drop(ctx context.Context) error {
	return s.invoices.Database().Drop(ctx)
}
