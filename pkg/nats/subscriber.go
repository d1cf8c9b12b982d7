package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	owned  bool
	logger logger.ILogger

	mu   sync.Mutex
	subs []jetstream.ConsumeContext
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, err := Connect(url)
	if err != nil {
		return nil, err
	}
	s, err := NewSubscriberFromConn(nc, log)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

func NewSubscriberFromConn(nc *nats.Conn, log logger.ILogger) (*Subscriber, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe registers a handler for a subject pattern on a durable consumer
// so that no message is lost across restarts.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	return s.consume(consumer, subject, handler)
}

// SubscribeLatest delivers the last stored message on subject and then every
// new one, without keeping server-side consumer state.
func (s *Subscriber) SubscribeLatest(ctx context.Context, subject string, handler EventHandler) error {
	consumer, err := s.js.OrderedConsumer(ctx, StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{subject},
		DeliverPolicy:  jetstream.DeliverLastPerSubjectPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create ordered consumer: %w", err)
	}
	return s.consume(consumer, subject, handler)
}

func (s *Subscriber) consume(consumer jetstream.Consumer, subject string, handler EventHandler) error {
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			s.logger.Error("NATS", "Error unmarshalling event data", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Term()
			return
		}

		occurred := time.Now()
		if ts := msg.Headers().Get("Occurred-At"); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				occurred = t
			}
		}

		event := events.BaseEvent{
			Type:       EventType(msg.Subject()),
			Data:       payload,
			OccurredAt: occurred,
		}

		if err := handler(context.Background(), event); err != nil {
			s.logger.Warn("NATS", "Handler failed", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Nak() // Retry
			return
		}

		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.mu.Lock()
	s.subs = append(s.subs, cc)
	s.mu.Unlock()

	s.logger.Info("NATS", "Subscribed", map[string]interface{}{
		"subject": subject,
	})
	return nil
}

// Close stops every consumer and, if owned, the connection.
func (s *Subscriber) Close() {
	s.mu.Lock()
	for _, cc := range s.subs {
		cc.Stop()
	}
	s.subs = nil
	s.mu.Unlock()

	if s.owned && s.nc != nil {
		s.nc.Close()
	}
}
