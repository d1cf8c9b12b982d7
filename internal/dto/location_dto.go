// FILE: internal/dto/location_dto.go
package dto

// LocationRequest is posted by the cockpit UI from the browser geolocation API.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Resolved  bool    `json:"resolved"`
}
