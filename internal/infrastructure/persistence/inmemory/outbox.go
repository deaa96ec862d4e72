package inmemory

import (
	"context"
	"fmt"

	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

func (s *Store) FindUnpublished(ctx context.Context, limit int) ([]outbox.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []outbox.OutboxEvent
	for _, evt := range s.state.outbox {
		if len(events) == limit {
			break
		}
		if !evt.Published {
			events = append(events, evt)
		}
	}
	return events, nil
}

func (s *Store) MarkPublished(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.outbox {
		if s.state.outbox[i].ID == id {
			s.state.outbox[i].Published = true
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

// Events returns every recorded event, published or not.
func (s *Store) Events() []outbox.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]outbox.OutboxEvent(nil), s.state.outbox...)
}
