// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events publishes review domain events for downstream consumers
// such as the recommendation service. Publishing is fire-and-forget: a
// failure is logged and counted, never returned to the request.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"alcoholdb/internal/metrics"
)

// Topic carries every review event.
const Topic = "catalogue.reviews"

// Type names a review event.
type Type string

const (
	ReviewCreated Type = "review.created"
	ReviewUpdated Type = "review.updated"
	ReviewDeleted Type = "review.deleted"
	ReviewBanned  Type = "review.banned"
)

// Event is one review change.
type Event struct {
	Type       Type      `json:"type"`
	ReviewID   uuid.UUID `json:"review_id"`
	AlcoholID  uuid.UUID `json:"alcohol_id"`
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	OldRating  int       `json:"old_rating,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
	Close() error
}

// Noop discards events. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close() error                   { return nil }

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events to Topic, keyed by alcohol id so events for one
// item stay ordered within a partition.
type Kafka struct {
	w messageWriter
}

// NewKafka returns a publisher writing asynchronously to broker. Returns a
// Noop publisher when broker is empty.
func NewKafka(broker string) Publisher {
	if broker == "" {
		return Noop{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				slog.Error("publish review events failed", "count", len(msgs), "error", err)
			}
		},
	}
	return &Kafka{w: w}
}

// Publish encodes e and hands it to the writer.
func (k *Kafka) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("encode review event failed", "type", e.Type, "error", err)
		metrics.EventsPublished.WithLabelValues(string(e.Type), "error").Inc()
		return
	}
	msg := kafka.Message{
		Key:   []byte(e.AlcoholID.String()),
		Value: data,
		Time:  e.OccurredAt,
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		slog.Error("publish review event failed", "type", e.Type, "review_id", e.ReviewID, "error", err)
		metrics.EventsPublished.WithLabelValues(string(e.Type), "error").Inc()
		return
	}
	metrics.EventsPublished.WithLabelValues(string(e.Type), "ok").Inc()
}

// Close flushes pending messages.
func (k *Kafka) Close() error {
	return k.w.Close()
}
