package entity

import "nova-drive-be/pkg/assistant"

// UnknownAddress is stored when reverse geocoding fails.
const UnknownAddress = "Unknown location"

// Location is the last position reported by the cockpit UI.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

func (l Location) Coordinates() assistant.Coordinates {
	return assistant.Coordinates{Lat: l.Latitude, Lon: l.Longitude}
}
