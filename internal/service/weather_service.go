package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
)

const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

type IWeatherService interface {
	assistant.WeatherReporter
}

// CurrentWeather holds the fields of an OpenWeather current-weather reply
// that are spoken to the driver.
type CurrentWeather struct {
	Description string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	City        string
}

type weatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  logger.ILogger
}

func NewWeatherService(apiKey, baseURL string, log logger.ILogger) IWeatherService {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &weatherService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  log,
	}
}

func (s *weatherService) WeatherAt(ctx context.Context, at assistant.Coordinates) (string, error) {
	params := url.Values{}
	params.Add("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	params.Add("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	params.Add("appid", s.apiKey)
	params.Add("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read weather response: %w", err)
	}

	// "cod" is a number on success and sometimes a string on error.
	var result struct {
		Cod     json.RawMessage `json:"cod"`
		Message string          `json:"message"`
		Name    string          `json:"name"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}
	if code := parseCod(result.Cod); code != http.StatusOK {
		return "", fmt.Errorf("weather api error %d: %s", code, result.Message)
	}
	if len(result.Weather) == 0 {
		return "", fmt.Errorf("weather api returned no conditions")
	}

	w := CurrentWeather{
		Description: result.Weather[0].Description,
		Temp:        result.Main.Temp,
		FeelsLike:   result.Main.FeelsLike,
		Humidity:    result.Main.Humidity,
		City:        result.Name,
	}
	s.logger.Debug("WEATHER", "Weather fetched", map[string]interface{}{"city": w.City})
	return FormatWeather(w), nil
}

func parseCod(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if n, err := strconv.Atoi(str); err == nil {
			return n
		}
	}
	return 0
}

func FormatWeather(w CurrentWeather) string {
	return fmt.Sprintf("Current weather is %s. Temperature is %s°C, feels like %s°C. Humidity is %d%%.",
		w.Description, formatTemp(w.Temp), formatTemp(w.FeelsLike), w.Humidity)
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
