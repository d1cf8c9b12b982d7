package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherAt(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{
			"cod": 200,
			"name": "Cairo",
			"weather": [{"description": "clear sky"}],
			"main": {"temp": 31.5, "feels_like": 30, "humidity": 40}
		}`))
	}))
	defer srv.Close()

	svc := NewWeatherService("ow-key", srv.URL, logger.NewNop())
	got, err := svc.WeatherAt(context.Background(), assistant.Coordinates{Lat: 30.04, Lon: 31.23})
	require.NoError(t, err)

	assert.Equal(t, "Current weather is clear sky. Temperature is 31.5°C, feels like 30°C. Humidity is 40%.", got)
	assert.Equal(t, []string{"metric"}, query["units"])
	assert.Equal(t, []string{"30.04"}, query["lat"])
	assert.Equal(t, []string{"ow-key"}, query["appid"])
}

func TestWeatherAt_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": "401", "message": "Invalid API key"}`))
	}))
	defer srv.Close()

	svc := NewWeatherService("bad", srv.URL, logger.NewNop())
	_, err := svc.WeatherAt(context.Background(), assistant.Coordinates{})
	assert.ErrorContains(t, err, "weather api error 401: Invalid API key")
}
