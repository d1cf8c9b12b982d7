// FILE: internal/service/location_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/repository/contract"
	"nova-drive-be/internal/repository/memory"
	"nova-drive-be/pkg/assistant"
)

var ErrPlaceNotFound = errors.New("place not found")

type ILocationService interface {
	assistant.Geo
	// ApproximateLocation resolves city and country from the public IP.
	ApproximateLocation(ctx context.Context) (city, country string, err error)
	ReverseGeocode(ctx context.Context, at assistant.Coordinates) (string, error)
}

// LocationEndpoints are overridable for tests.
type LocationEndpoints struct {
	IPLookup string
	Geocode  string
	Reverse  string
}

func DefaultLocationEndpoints() LocationEndpoints {
	return LocationEndpoints{
		IPLookup: "http://ip-api.com/json/",
		Geocode:  "https://geocode.search.hereapi.com/v1/geocode",
		Reverse:  "https://nominatim.openstreetmap.org/reverse",
	}
}

const nominatimUserAgent = "driver_assistant"

type locationService struct {
	hereKey     string
	countryCode string
	endpoints   LocationEndpoints
	client      *http.Client
	cache       *memory.LookupRepository
	locations   contract.ILocationRepository
	logger      logger.ILogger
}

type ipLocation struct {
	City    string
	Country string
	Coords  assistant.Coordinates
}

func NewLocationService(
	hereKey, countryCode string,
	endpoints LocationEndpoints,
	cache *memory.LookupRepository,
	locations contract.ILocationRepository,
	log logger.ILogger,
) ILocationService {
	return &locationService{
		hereKey:     hereKey,
		countryCode: strings.ToUpper(countryCode),
		endpoints:   endpoints,
		client:      &http.Client{Timeout: 10 * time.Second},
		cache:       cache,
		locations:   locations,
		logger:      log,
	}
}

func (s *locationService) getJSON(ctx context.Context, rawURL string, params url.Values, out interface{}, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

func (s *locationService) lookupIP(ctx context.Context) (*ipLocation, error) {
	const cacheKey = "ip:self"
	if val, ok := s.cache.Get(cacheKey); ok {
		return val.(*ipLocation), nil
	}

	params := url.Values{}
	params.Add("fields", "status,message,country,city,lat,lon")

	var result struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Country string  `json:"country"`
		City    string  `json:"city"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := s.getJSON(ctx, s.endpoints.IPLookup, params, &result, nil); err != nil {
		return nil, fmt.Errorf("ip lookup: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("ip lookup: %s", result.Message)
	}

	loc := &ipLocation{
		City:    result.City,
		Country: result.Country,
		Coords:  assistant.Coordinates{Lat: result.Lat, Lon: result.Lon},
	}
	s.cache.Save(cacheKey, loc, time.Hour)
	return loc, nil
}

func (s *locationService) ApproximateLocation(ctx context.Context) (string, string, error) {
	loc, err := s.lookupIP(ctx)
	if err != nil {
		return "", "", err
	}
	return loc.City, loc.Country, nil
}

// ResolveDestination geocodes a spoken place name with HERE, biased to the
// configured country.
func (s *locationService) ResolveDestination(ctx context.Context, name string) (assistant.Coordinates, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return assistant.Coordinates{}, ErrPlaceNotFound
	}

	cacheKey := fmt.Sprintf("geocode:%s:%s", s.countryCode, strings.ToLower(name))
	if val, ok := s.cache.Get(cacheKey); ok {
		return val.(assistant.Coordinates), nil
	}

	params := url.Values{}
	params.Add("q", name)
	if s.countryCode != "" {
		params.Add("in", "countryCode:"+s.countryCode)
	}
	params.Add("limit", "1")
	params.Add("apiKey", s.hereKey)

	var result struct {
		Items []struct {
			Title    string `json:"title"`
			Position struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"position"`
		} `json:"items"`
	}
	if err := s.getJSON(ctx, s.endpoints.Geocode, params, &result, nil); err != nil {
		return assistant.Coordinates{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(result.Items) == 0 {
		return assistant.Coordinates{}, fmt.Errorf("geocode %q: %w", name, ErrPlaceNotFound)
	}

	coords := assistant.Coordinates{Lat: result.Items[0].Position.Lat, Lon: result.Items[0].Position.Lng}
	s.logger.Debug("LOCATION", "Destination geocoded", map[string]interface{}{
		"query": name,
		"title": result.Items[0].Title,
	})
	s.cache.Save(cacheKey, coords, 24*time.Hour)
	return coords, nil
}

// LastKnownOrigin prefers the position reported by the UI and falls back to
// the IP estimate.
func (s *locationService) LastKnownOrigin(ctx context.Context) (assistant.Coordinates, error) {
	loc, err := s.locations.Load(ctx)
	if err == nil {
		return loc.Coordinates(), nil
	}
	if !errors.Is(err, contract.ErrLocationNotFound) {
		s.logger.Warn("LOCATION", "Failed to read saved location", map[string]interface{}{"error": err.Error()})
	}

	ip, err := s.lookupIP(ctx)
	if err != nil {
		return assistant.Coordinates{}, fmt.Errorf("no origin available: %w", err)
	}
	return ip.Coords, nil
}

func (s *locationService) ReverseGeocode(ctx context.Context, at assistant.Coordinates) (string, error) {
	cacheKey := fmt.Sprintf("reverse:%.5f,%.5f", at.Lat, at.Lon)
	if val, ok := s.cache.Get(cacheKey); ok {
		return val.(string), nil
	}

	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%f", at.Lat))
	params.Add("lon", fmt.Sprintf("%f", at.Lon))
	params.Add("format", "jsonv2")
	params.Add("accept-language", "en")

	var result struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	err := s.getJSON(ctx, s.endpoints.Reverse, params, &result, map[string]string{"User-Agent": nominatimUserAgent})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return "", fmt.Errorf("reverse geocode: %w", ErrPlaceNotFound)
	}

	s.cache.Save(cacheKey, result.DisplayName, 0)
	return result.DisplayName, nil
}
