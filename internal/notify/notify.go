// Package notify publishes run-completion events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/qa"
)

// PubSub publishes run-completion events to a Google Cloud Pub/Sub topic.
type PubSub struct {
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub wraps an existing topic handle.
func NewPubSub(topic *pubsub.Topic, logger *zap.Logger) *PubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubSub{topic: topic, logger: logger}
}

// RunCompleted marshals the event to JSON and publishes it, blocking until
// the server acknowledges.
func (p *PubSub) RunCompleted(ctx context.Context, event qa.RunCompletedEvent) error {
	if p.topic == nil {
		return fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id":   event.RunID,
			"run_type": string(event.Type),
		},
	}
	result := p.topic.Publish(ctx, msg)
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish event for run %s: %w", event.RunID, err)
	}
	p.logger.Debug("published run completion",
		zap.String("run_id", event.RunID),
		zap.String("message_id", id))
	return nil
}

// Memory collects events in process, for tests and local development.
type Memory struct {
	mu     sync.Mutex
	events []qa.RunCompletedEvent
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RunCompleted(_ context.Context, event qa.RunCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []qa.RunCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]qa.RunCompletedEvent, len(m.events))
	copy(out, m.events)
	return out
}
