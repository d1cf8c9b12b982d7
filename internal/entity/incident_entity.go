package entity

import (
	"time"

	"github.com/google/uuid"
)

// Incident is one finished driver check-up.
type Incident struct {
	Id        uuid.UUID
	Outcome   string
	StartedAt time.Time
	EndedAt   time.Time
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}
