package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the wire form of an outbox message handed to a sink.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     json.RawMessage `json:"payload"`
}

// Bus publishes events. Publish must be safe to retry: the relay delivers
// at least once.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}
