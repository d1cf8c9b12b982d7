// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/pkg/mailer"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber   message.Subscriber
	topicName    string
	emailService mailer.IEmailService
	phoneBridge  EventPublisher // nil when NATS is not configured
	logger       logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	emailService mailer.IEmailService,
	phoneBridge EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:   subscriber,
		topicName:    topicName,
		emailService: emailService,
		phoneBridge:  phoneBridge,
		logger:       log,
	}
}

// Consume subscribes and processes jobs on a background goroutine until ctx
// is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: notifications are best effort and a redelivery
// loop would repeat calls to the emergency contact.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var job dto.OutboundJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	switch job.Kind {
	case dto.JobEmergencyEmail:
		if err := cs.emailService.SendEmergencyEmail(ctx, job.StreamURL, job.To); err != nil {
			cs.logger.Error("CONSUMER", "Emergency email failed", map[string]interface{}{"error": err.Error()})
		}
	case dto.JobContact:
		cs.deliverContact(ctx, job)
	default:
		cs.logger.Warn("CONSUMER", "Unknown job kind", map[string]interface{}{"kind": job.Kind})
	}
}

func (cs *consumerService) deliverContact(ctx context.Context, job dto.OutboundJob) {
	details := map[string]interface{}{"number": job.Number, "mode": job.Mode}
	if cs.phoneBridge == nil {
		cs.logger.Warn("CONSUMER", "Phone bridge unavailable, contact not reached", details)
		return
	}

	eventType := events.TypeContactMessage
	if assistant.NotifyMode(job.Mode) == assistant.NotifyCall {
		eventType = events.TypeContactCall
	}

	event := events.New(eventType, map[string]interface{}{
		"number": job.Number,
		"text":   job.Text,
	})
	if err := cs.phoneBridge.Publish(ctx, event); err != nil {
		details["error"] = err.Error()
		cs.logger.Error("CONSUMER", "Failed to publish contact event", details)
		return
	}
	cs.logger.Info("CONSUMER", "Contact event published", details)
}
