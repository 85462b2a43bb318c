package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ossectail/internal/config"
	"ossectail/internal/model"
)

// Publisher forwards persisted alerts downstream.
type Publisher interface {
	Publish(ctx context.Context, alert model.Alert) error
	Close() error
}

// New returns nil when forwarding is disabled. onError receives delivery
// failures reported by the background writer.
func New(cfg config.PublishConfig, onError func(error)) Publisher {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return NewKafka(cfg.Kafka, onError)
}

type Kafka struct {
	writer *kafka.Writer
}

// NewKafka builds an async writer: WriteMessages only enqueues, so a slow
// broker never stalls the tail.
func NewKafka(cfg config.KafkaConfig, onError func(error)) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Async:        true,
	}
	if onError != nil {
		w.Completion = func(messages []kafka.Message, err error) {
			if err != nil {
				onError(fmt.Errorf("kafka deliver %d messages: %w", len(messages), err))
			}
		}
	}
	return &Kafka{writer: w}
}

func (k *Kafka) Publish(ctx context.Context, alert model.Alert) error {
	msg, err := Message(alert)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", alert.OSSECID, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Message encodes an alert as JSON keyed by its OSSEC id so that replays
// of the same alert land on the same partition.
func Message(alert model.Alert) (kafka.Message, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode alert %s: %w", alert.OSSECID, err)
	}
	return kafka.Message{
		Key:   []byte(alert.OSSECID),
		Value: body,
		Time:  alert.Time,
	}, nil
}
