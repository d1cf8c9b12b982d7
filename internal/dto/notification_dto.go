package dto

import "time"

// Outbound job kinds carried on the notification topic.
const (
	JobEmergencyEmail = "emergency_email"
	JobContact        = "contact"
)

// OutboundJob is the payload of one queued notification.
type OutboundJob struct {
	Kind      string    `json:"kind"`
	Number    string    `json:"number,omitempty"`
	Text      string    `json:"text,omitempty"`
	Mode      string    `json:"mode,omitempty"` // "message" or "call"
	StreamURL string    `json:"stream_url,omitempty"`
	To        string    `json:"to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
