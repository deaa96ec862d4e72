package outbox

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
)

type EventPublisher interface {
	Publish(event.Event) error
}

// Dispatcher hands recorded events to the bus in recording order. An
// event stays unpublished, and is retried on a later poll, until every
// subscriber accepted it.
type Dispatcher struct {
	Repo         Repository
	EventBus     EventPublisher
	Logger       logging.Logger
	PollInterval time.Duration
	// MaxBackoff caps the wait between polls while the outbox is stalled.
	// Zero keeps polling at PollInterval.
	MaxBackoff time.Duration
	BatchSize  int
}

func (d *Dispatcher) Run(ctx context.Context) {
	backoff := Backoff{Base: d.PollInterval, Max: d.MaxBackoff}
	if d.MaxBackoff <= 0 {
		backoff.Max = d.PollInterval
	}

	failures := 0
	timer := time.NewTimer(d.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, ok := d.dispatch(ctx); ok {
				failures = 0
			} else {
				failures++
			}
			timer.Reset(backoff.Delay(failures))
		}
	}
}

// DispatchOnce publishes one batch and returns how many events were
// marked published.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	n, _ := d.dispatch(ctx)
	return n
}

// dispatch reports false when the batch could not be drained.
func (d *Dispatcher) dispatch(ctx context.Context) (int, bool) {
	events, err := d.Repo.FindUnpublished(ctx, d.BatchSize)
	if err != nil {
		d.Logger.Error("outbox fetch failed", map[string]any{"error": err})
		return 0, false
	}

	published := 0
	for _, evt := range events {
		payload, err := event.DecodePayload(evt.Type, evt.Payload)
		if err != nil {
			// resolved in place: later events must not pass it unhandled
			d.Logger.Error("outbox event undecodable, dropping", map[string]any{
				"event-id": evt.ID,
				"type":     evt.Type,
				"payload":  string(evt.Payload),
				"error":    err,
			})
			if err := d.Repo.MarkPublished(ctx, evt.ID); err != nil {
				d.Logger.Error("outbox mark failed", map[string]any{
					"event-id": evt.ID,
					"error":    err,
				})
				return published, false
			}
			continue
		}

		domainEvent := event.Event{
			Type:       evt.Type,
			Payload:    payload,
			OccurredAt: evt.CreatedAt,
		}

		if err := d.EventBus.Publish(domainEvent); err != nil {
			d.Logger.Error("outbox publish failed", map[string]any{
				"event-id": evt.ID,
				"type":     evt.Type,
				"error":    err,
			})
			// later events must not overtake this one
			return published, false
		}

		if err := d.Repo.MarkPublished(ctx, evt.ID); err != nil {
			d.Logger.Error("outbox mark failed", map[string]any{
				"event-id": evt.ID,
				"error":    err,
			})
			return published, false
		}
		published++
	}

	return published, true
}
