package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
)

const DefaultRoutingURL = "https://router.hereapi.com/v8/routes"

var ErrNoRoute = errors.New("no route found")

// RouteSummary is the first section summary returned by HERE routing.
type RouteSummary struct {
	Duration     int     `json:"duration"`     // seconds, with live traffic
	BaseDuration int     `json:"baseDuration"` // seconds, free flow
	Length       float64 `json:"length"`       // meters
}

type INavigationService interface {
	assistant.RoutePlanner
}

type navigationService struct {
	hereKey    string
	routingURL string
	client     *http.Client
	logger     logger.ILogger
}

func NewNavigationService(hereKey, routingURL string, log logger.ILogger) INavigationService {
	if routingURL == "" {
		routingURL = DefaultRoutingURL
	}
	return &navigationService{
		hereKey:    hereKey,
		routingURL: routingURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

func (s *navigationService) RouteSummary(ctx context.Context, origin, dest assistant.Coordinates) (string, error) {
	params := url.Values{}
	params.Add("transportMode", "car")
	params.Add("routingMode", "fast")
	params.Add("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	params.Add("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lon))
	params.Add("return", "summary")
	params.Add("apikey", s.hereKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.routingURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("routing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read routing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("routing status %d", resp.StatusCode)
	}

	var result struct {
		Routes []struct {
			Sections []struct {
				Summary RouteSummary `json:"summary"`
			} `json:"sections"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode routing response: %w", err)
	}
	if len(result.Routes) == 0 || len(result.Routes[0].Sections) == 0 {
		return "", ErrNoRoute
	}

	summary := result.Routes[0].Sections[0].Summary
	s.logger.Debug("NAVIGATION", "Route computed", map[string]interface{}{
		"duration":      summary.Duration,
		"base_duration": summary.BaseDuration,
		"length":        summary.Length,
	})
	return FormatRouteSummary(summary), nil
}

// FormatRouteSummary renders the spoken travel time sentence. A delay of more
// than one minute over free flow is reported as traffic.
func FormatRouteSummary(s RouteSummary) string {
	delay := s.Duration - s.BaseDuration
	minutes := int(math.Round(float64(s.Duration) / 60))
	baseMinutes := int(math.Round(float64(s.BaseDuration) / 60))
	km := math.Round(s.Length/100) / 10

	traffic := "Traffic conditions are normal."
	if delay > 60 {
		traffic = fmt.Sprintf("Due to traffic, your trip is delayed by about %d minutes.", int(math.Round(float64(delay)/60)))
	}

	return fmt.Sprintf("The estimated travel time is %d minutes (normally %d minutes), covering %s km. %s",
		minutes, baseMinutes, formatKm(km), traffic)
}

func formatKm(km float64) string {
	return fmt.Sprintf("%.1f", km)
}
