package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/pkg/serverutils"
	"nova-drive-be/pkg/assistant/escalation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssistant struct {
	mic        int
	monitoring bool
	location   *dto.LocationRequest
	locErr     error
}

func (s *stubAssistant) PressMic(context.Context) { s.mic++ }

func (s *stubAssistant) EnableMonitoring(context.Context) dto.MonitorModeResponse {
	s.monitoring = true
	return s.MonitorMode()
}

func (s *stubAssistant) DisableMonitoring(context.Context) dto.MonitorModeResponse {
	s.monitoring = false
	return s.MonitorMode()
}

func (s *stubAssistant) MonitorMode() dto.MonitorModeResponse {
	if s.monitoring {
		return dto.MonitorModeResponse{Mode: "on"}
	}
	return dto.MonitorModeResponse{Mode: "off"}
}

func (s *stubAssistant) ReceiveLocation(_ context.Context, req dto.LocationRequest) (*dto.LocationResponse, error) {
	s.location = &req
	if s.locErr != nil {
		return nil, s.locErr
	}
	return &dto.LocationResponse{Latitude: *req.Latitude, Longitude: *req.Longitude, Address: "Maadi", Resolved: true}, nil
}

func (s *stubAssistant) State() dto.AssistantStateResponse {
	return dto.AssistantStateResponse{Mode: "MONITORING", MicPressed: s.mic > 0, MonitoringEnabled: s.monitoring}
}

func newTestApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	register(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestAssistantController_Monitoring(t *testing.T) {
	svc := &stubAssistant{monitoring: true}
	app := newTestApp(NewAssistantController(svc).RegisterRoutes)

	code, body := do(t, app, "GET", "/api/assistant/monitoring", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "on", body["mode"])

	_, body = do(t, app, "POST", "/api/assistant/monitoring/disable", "")
	assert.Equal(t, "off", body["mode"])

	_, body = do(t, app, "POST", "/api/assistant/monitoring/enable", "")
	assert.Equal(t, "on", body["mode"])
}

func TestAssistantController_Mic(t *testing.T) {
	svc := &stubAssistant{}
	app := newTestApp(NewAssistantController(svc).RegisterRoutes)

	code, body := do(t, app, "POST", "/api/assistant/mic", "")
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, true, body["mic_pressed"])
	assert.Equal(t, 1, svc.mic)

	_, body = do(t, app, "GET", "/api/assistant/state", "")
	assert.Equal(t, "MONITORING", body["mode"])
}

func TestAssistantController_Location(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"valid", `{"latitude":29.96,"longitude":31.25}`, nil, fiber.StatusOK},
		{"out of range", `{"latitude":95,"longitude":31.25}`, nil, fiber.StatusBadRequest},
		{"missing longitude", `{"latitude":29.96}`, nil, fiber.StatusBadRequest},
		{"malformed", `{"latitude":`, nil, fiber.StatusBadRequest},
		{"storage failure", `{"latitude":0,"longitude":0}`, errors.New("disk full"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAssistant{locErr: tt.err}
			app := newTestApp(NewAssistantController(svc).RegisterRoutes)

			code, body := do(t, app, "POST", "/api/assistant/location", tt.body)
			assert.Equal(t, tt.status, code)
			if tt.status == fiber.StatusOK {
				assert.Equal(t, "Maadi", body["address"])
				assert.Equal(t, true, body["resolved"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

type stubLogs struct {
	level         string
	limit, offset int
}

func (s *stubLogs) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	s.level, s.limit, s.offset = level, limit, offset
	return []logger.LogEntry{{Id: "abc", Level: "error", Module: "ROUTER", Message: "boom"}}, nil
}

type stubIncidents struct {
	limit, offset int
	err           error
}

func (s *stubIncidents) RecordIncident(context.Context, escalation.Incident) error { return nil }

func (s *stubIncidents) ListIncidents(_ context.Context, limit, offset int) (*dto.IncidentListResponse, error) {
	s.limit, s.offset = limit, offset
	if s.err != nil {
		return nil, s.err
	}
	return &dto.IncidentListResponse{
		Total:     1,
		Incidents: []dto.IncidentResponse{{Id: uuid.New(), Outcome: "emergency"}},
	}, nil
}

func TestDiagnosticsController_Logs(t *testing.T) {
	logs := &stubLogs{}
	app := newTestApp(NewDiagnosticsController(logs, nil).RegisterRoutes)

	code, body := do(t, app, "GET", "/api/diagnostics/logs?level=error&page=3&limit=10", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "error", logs.level)
	assert.Equal(t, 10, logs.limit)
	assert.Equal(t, 20, logs.offset)

	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "ROUTER", data[0].(map[string]interface{})["module"])
}

func TestDiagnosticsController_Incidents(t *testing.T) {
	incidents := &stubIncidents{}
	app := newTestApp(NewDiagnosticsController(&stubLogs{}, incidents).RegisterRoutes)

	code, body := do(t, app, "GET", "/api/incidents?limit=500", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 20, incidents.limit)
	assert.Equal(t, 0, incidents.offset)

	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["total"])
	assert.Len(t, data["incidents"], 1)

	incidents.err = errors.New("database is locked")
	code, body = do(t, app, "GET", "/api/incidents", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "database is locked", body["message"])
}
