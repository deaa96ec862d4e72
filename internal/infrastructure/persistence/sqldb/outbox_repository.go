package sqldb

import (
	"context"
	"fmt"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

func (s *Store) FindUnpublished(ctx context.Context, limit int) ([]outbox.OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT id, event_type, payload, published, created_at
		 FROM outbox_events
		 WHERE published = 0
		 ORDER BY seq
		 LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []outbox.OutboxEvent

	for rows.Next() {
		var evt outbox.OutboxEvent
		var typ string
		var published int

		if err := rows.Scan(
			&evt.ID,
			&typ,
			&evt.Payload,
			&published,
			&evt.CreatedAt,
		); err != nil {
			return nil, err
		}

		evt.Type = event.Type(typ)
		evt.Published = published == 1
		evt.CreatedAt = evt.CreatedAt.UTC()
		events = append(events, evt)
	}

	return events, rows.Err()
}

func (s *Store) MarkPublished(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`UPDATE outbox_events
		 SET published = 1
		 WHERE id = ?`),
		id,
	)
	if err != nil {
		return err
	}
	return expectOne(res, fmt.Errorf("outbox event %s not found", id))
}
