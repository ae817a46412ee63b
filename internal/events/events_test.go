package events

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaWithoutBrokerIsNoop(t *testing.T) {
	if _, ok := NewKafka("").(Noop); !ok {
		t.Error("expected Noop publisher when broker is empty")
	}
}

func TestKafkaPublishEncodesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Kafka{w: w}
	alcohol := uuid.New()
	p.Publish(context.Background(), Event{
		Type:      ReviewCreated,
		ReviewID:  uuid.New(),
		AlcoholID: alcohol,
		UserID:    uuid.New(),
		Rating:    4,
	})

	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != alcohol.String() {
		t.Errorf("key = %s, want alcohol id", msg.Key)
	}
	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Type != ReviewCreated || got.Rating != 4 {
		t.Errorf("event = %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Error("OccurredAt should be set")
	}
}

func TestKafkaPublishSwallowsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Kafka{w: w}
	p.Publish(context.Background(), Event{Type: ReviewDeleted})
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close() = %v, closed = %v", err, w.closed)
	}
}
