package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Subscriber abstracts the pub/sub subscribe operation.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Dispatcher consumes document lifecycle events and hands them to the
// Controller, one goroutine per event. Ordering per document is enforced by
// the Controller's per-document lock, not by the dispatcher; events for
// different documents run fully concurrently.
type Dispatcher struct {
	sub  Subscriber
	ctrl *Controller
}

func NewDispatcher(sub Subscriber, ctrl *Controller) *Dispatcher {
	return &Dispatcher{sub: sub, ctrl: ctrl}
}

// Run blocks consuming events until ctx is cancelled or the subscription
// channel closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	events, cleanup, err := d.sub.Subscribe(ctx, DocumentsChannel)
	if err != nil {
		return fmt.Errorf("workflow.Dispatcher.Run: %w", err)
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-events:
			if !ok {
				return nil
			}

			var evt Event
			if err := json.Unmarshal(payload, &evt); err != nil {
				log.Warn().Err(err).Msg("workflow: dropping malformed event")
				continue
			}

			go d.handle(ctx, evt)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, evt Event) {
	var err error
	switch evt.Type {
	case EventDocumentCreated:
		err = d.ctrl.HandleCreated(ctx, evt.DocID)
	case EventDocumentUpdated:
		err = d.ctrl.HandleUpdated(ctx, evt.DocID, evt.Prev, evt.Next)
	default:
		log.Warn().Str("type", string(evt.Type)).Msg("workflow: unknown event type")
		return
	}

	if err != nil {
		log.Error().Err(err).
			Str("type", string(evt.Type)).
			Str("doc_id", evt.DocID.String()).
			Msg("workflow: event handler error")
	}
}

// PublishEvent serializes and publishes a document lifecycle event.
func PublishEvent(ctx context.Context, pub Publisher, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("workflow.PublishEvent: marshal: %w", err)
	}
	if err := pub.Publish(ctx, DocumentsChannel, payload); err != nil {
		return fmt.Errorf("workflow.PublishEvent: %w", err)
	}
	return nil
}
