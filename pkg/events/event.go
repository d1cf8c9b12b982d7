package events

import "time"

// Event types published on the bus. The NATS subject is "events.<type>".
const (
	TypeAlertSnapshot    = "alert.snapshot"
	TypeContactMessage   = "contact.message"
	TypeContactCall      = "contact.call"
	TypeIncidentRecorded = "incident.recorded"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the dotted type code (e.g. "contact.call").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic Event used on both sides of the bus.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
