package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes one message per apply run, keyed by manifest checksum
type Kafka struct {
	writer *kafka.Writer
	topic  string
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
	}
	return &Kafka{writer: writer, topic: topic}, nil
}

func (k *Kafka) Record(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(r.Checksum),
		Value: data,
		Time:  r.AppliedAt,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(r.Status)},
			{Key: "manifest", Value: []byte(r.Manifest)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write history to Kafka topic %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) List(context.Context, int) ([]Record, error) {
	return nil, ErrListUnsupported
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
