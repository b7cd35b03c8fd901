package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "events", "", 0)

	msg, err := NewMessage().
		WithKey("session_1").
		WithValue(map[string]string{"a": "b"}).
		WithEventType("booking.confirmed").
		WithConversationID("session_1").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message written, got %d", len(w.messages))
	}
	got := w.messages[0]
	if string(got.Key) != "session_1" {
		t.Errorf("key = %q", got.Key)
	}
	if headerValue(got, HeaderEventType) != "booking.confirmed" {
		t.Errorf("event type header = %q", headerValue(got, HeaderEventType))
	}
	if headerValue(got, HeaderEventID) == "" {
		t.Error("expected generated event id")
	}
}

func TestProducer_PublishValidation(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "events", "", 0)

	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{"empty key", Message{Value: []byte("{}")}, ErrEmptyKey},
		{"empty value", Message{Key: "k"}, ErrEmptyValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Publish(context.Background(), tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	dlq := &fakeWriter{}
	p := newProducer(w, dlq, "events", "events.dlq", 0)

	msg := Message{Key: "k", Value: []byte("{}"), Headers: map[string]string{}}
	err := p.Publish(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error")
	}
	if ClassifyError(err) != ErrorTypeTransient {
		t.Errorf("ClassifyError() = %v, want transient", ClassifyError(err))
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
	if headerValue(dlq.messages[0], HeaderOriginalTopic) != "events" {
		t.Errorf("original topic header = %q", headerValue(dlq.messages[0], HeaderOriginalTopic))
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Error("caller headers must not be mutated")
	}
}

func TestProducer_MiddlewareOrderAndClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "events", "", 0)

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second")
		return next(ctx, msg)
	})

	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("middleware order = %v", order)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("Publish() after Close error = %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeUnknown},
		{errors.New("dial tcp: i/o timeout"), ErrorTypeTransient},
		{errors.New("Connection Refused"), ErrorTypeTransient},
		{errors.New("unknown topic or partition"), ErrorTypePermanent},
		{NewPermanentError("bad", nil), ErrorTypePermanent},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
