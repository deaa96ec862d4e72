package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

func (s *Store) FindUnpublished(ctx context.Context, limit int) ([]outbox.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.outbox.Find(ctx, bson.M{"published": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching outbox events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []outbox.OutboxEvent
	for cursor.Next(ctx) {
		var doc outboxDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding outbox event: %w", err)
		}
		events = append(events, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return events, nil
}

func (s *Store) MarkPublished(ctx context.Context, id string) error {
	res, err := s.outbox.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"published": true}},
	)
	if err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event %s not found", id)
	}
	return nil
}
