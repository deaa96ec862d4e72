package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
)

type OutboxEvent struct {
	ID        string
	Type      event.Type
	Payload   []byte
	Published bool
	CreatedAt time.Time
}

// Repository is implemented by every store that records events inside
// its atomic units.
type Repository interface {
	FindUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

// NewEvent serializes evt into the row stored next to the entities it
// describes.
func NewEvent(evt event.Event) (OutboxEvent, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("encoding %s payload: %w", evt.Type, err)
	}

	return OutboxEvent{
		ID:        uuid.NewString(),
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: evt.OccurredAt,
	}, nil
}
