package dto

import (
	"time"

	"github.com/google/uuid"
)

type LogListResponse struct {
	Id        string `json:"id"` // MD5 hash of the log line
	Level     string `json:"level"`
	Module    string `json:"module"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details,omitempty"`
}

type IncidentResponse struct {
	Id        uuid.UUID `json:"id"`
	Outcome   string    `json:"outcome"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}

type IncidentListResponse struct {
	Total     int64              `json:"total"`
	Incidents []IncidentResponse `json:"incidents"`
}
