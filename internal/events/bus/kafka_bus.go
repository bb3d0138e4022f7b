package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type kafkaBus struct {
	log    *logger.Logger
	writer *kafka.Writer
}

// NewKafkaBus keys every message by aggregate id so events for one payout
// stay ordered within a partition.
func NewKafkaBus(log *logger.Logger, cfg KafkaConfig) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	var brokers []string
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("missing KAFKA_BROKERS")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = "payouts"
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &kafkaBus{
		log:    log.With("service", "KafkaEventBus", "topic", topic),
		writer: w,
	}, nil
}

func (b *kafkaBus) Publish(ctx context.Context, evt Event) error {
	if b == nil || b.writer == nil {
		return fmt.Errorf("kafka event bus not initialized")
	}
	msg, err := kafkaMessage(evt)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, msg)
}

func kafkaMessage(evt Event) (kafka.Message, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.AggregateID.String()),
		Value: raw,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "event_id", Value: []byte(evt.ID.String())},
		},
	}, nil
}

func (b *kafkaBus) Close() error {
	if b == nil || b.writer == nil {
		return nil
	}
	return b.writer.Close()
}
