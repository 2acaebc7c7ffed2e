package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// Kafka publishes events to a Kafka cluster. One writer serves every topic;
// the topic is set per message.
type Kafka struct {
	w *kafkaGo.Writer
}

// NewKafka creates a Kafka publisher for brokers.
func NewKafka(brokers []string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	return &Kafka{w: &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Balancer:               &kafkaGo.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkaGo.RequireOne,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}}, nil
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.w.WriteMessages(ctx, kafkaGo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

// Close flushes pending writes and releases connections.
func (k *Kafka) Close() error { return k.w.Close() }
