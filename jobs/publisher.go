package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/clinicore/clinicore/internal/billing"
)

// EventPublisher fans ledger events out to the notification and audit queues.
type EventPublisher struct {
	client *asynq.Client
}

// NewEventPublisher constructs a publisher backed by an Asynq client.
func NewEventPublisher(client *asynq.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// Publish enqueues one notify and one audit task for the event.
func (p *EventPublisher) Publish(ctx context.Context, evt billing.Event) error {
	notify, err := NewNotifyTask(evt)
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	audit, err := NewAuditTask(evt)
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	if _, err := p.client.EnqueueContext(ctx, notify, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("enqueue notify %s: %w", evt.Type, err)
	}
	if _, err := p.client.EnqueueContext(ctx, audit, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("enqueue audit %s: %w", evt.Type, err)
	}
	return nil
}
