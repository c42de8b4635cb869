package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamPublisher is the part of jetstream.JetStream the publisher needs.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher provides typed methods for publishing events to NATS JetStream.
type Publisher struct {
	js StreamPublisher
}

// NewPublisher creates a new Publisher.
func NewPublisher(js StreamPublisher) *Publisher {
	return &Publisher{js: js}
}

// PublishTurn publishes a completed chat turn. The event id doubles as the
// JetStream message id so redelivered publishes are deduplicated.
func (p *Publisher) PublishTurn(ctx context.Context, event TurnEvent) error {
	return p.publish(ctx, SubjectTurnEvent, event.ID, event)
}

// PublishLogs publishes a served transaction log lookup.
func (p *Publisher) PublishLogs(ctx context.Context, event LogsEvent) error {
	return p.publish(ctx, SubjectLogsEvent, event.ID, event)
}

func (p *Publisher) publish(ctx context.Context, subject, msgID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}
	_, err = p.js.Publish(ctx, subject, payload, opts...)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
