// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes lifecycle events to a Kafka topic, keyed by poll ID so
// one poll's events land on one partition in order.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		slog.Error("failed to encode poll event", "type", evt.Type, "poll_id", evt.PollID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.PollID),
		Value: value,
	})
	if err != nil {
		// Best-effort: clients fall back to polling the read model.
		slog.Warn("failed to publish poll event", "type", evt.Type, "poll_id", evt.PollID, "error", err)
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
