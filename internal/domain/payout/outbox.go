package payout

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const EventPayoutCreated = "payout.created"

// OutboxMessage is written in the same transaction as the payout it
// describes and published later by the relay.
type OutboxMessage struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AggregateID uuid.UUID      `gorm:"column:aggregate_id;type:uuid;not null;index" json:"aggregate_id"`
	EventType   string         `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
	PublishedAt *time.Time     `gorm:"column:published_at;index" json:"published_at,omitempty"`
}

func (OutboxMessage) TableName() string { return "payout_outbox" }

// CreatedEvent is the payload of a payout.created message.
type CreatedEvent struct {
	PayoutID       uuid.UUID `json:"payoutId"`
	CompanyID      uuid.UUID `json:"companyId"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	IdempotencyKey string    `json:"idempotencyKey"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewCreatedMessage(p *Payout) (*OutboxMessage, error) {
	body, err := json.Marshal(CreatedEvent{
		PayoutID:       p.ID,
		CompanyID:      p.CompanyID,
		Amount:         p.Amount.StringFixed(2),
		Currency:       p.Currency,
		Status:         p.Status,
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:          uuid.New(),
		AggregateID: p.ID,
		EventType:   EventPayoutCreated,
		Payload:     datatypes.JSON(body),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
