package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nova-drive-be/internal/dto"
	"nova-drive-be/pkg/assistant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService enqueues outbound notifications. NotifyContact and
// SendEmergencyEmail return once the job is queued; delivery happens on the
// consumer goroutine.
type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	assistant.Notifier
	assistant.EmergencyMailer
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}

func (p *publisherService) NotifyContact(ctx context.Context, number, text string, mode assistant.NotifyMode) error {
	if number == "" {
		return errors.New("contact number is empty")
	}
	return p.enqueue(ctx, dto.OutboundJob{
		Kind:   dto.JobContact,
		Number: number,
		Text:   text,
		Mode:   string(mode),
	})
}

func (p *publisherService) SendEmergencyEmail(ctx context.Context, streamURL, toAddress string) error {
	return p.enqueue(ctx, dto.OutboundJob{
		Kind:      dto.JobEmergencyEmail,
		StreamURL: streamURL,
		To:        toAddress,
	})
}

func (p *publisherService) enqueue(ctx context.Context, job dto.OutboundJob) error {
	job.CreatedAt = time.Now()
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode %s job: %w", job.Kind, err)
	}
	if err := p.Publish(ctx, payload); err != nil {
		return fmt.Errorf("enqueue %s job: %w", job.Kind, err)
	}
	return nil
}
