package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var ErrPublisherClosed = errors.New("events: publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes order events synchronously to a single topic.
type Kafka struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
	closed atomic.Bool
}

func NewKafka(brokers []string, topic string, logger zerolog.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka writer: "+msg, args...)
		}),
	}
	return &Kafka{writer: w, topic: topic, logger: logger}
}

func (k *Kafka) Publish(ctx context.Context, evt OrderEvent) error {
	if k.closed.Load() {
		return ErrPublisherClosed
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", evt.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.logger.Error().Err(err).Str("topic", k.topic).Str("type", evt.Type).Str("order_id", evt.OrderID).Msg("events: publish")
		return fmt.Errorf("events: publish %s: %w", evt.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	if !k.closed.CompareAndSwap(false, true) {
		return nil
	}
	return k.writer.Close()
}
