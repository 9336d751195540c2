// internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by application id, so every
// event of one application lands on the same partition.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		timeout: 10 * time.Second,
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.ApplicationID.String()),
			Value: value,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d event(s): %w", len(msgs), err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
