package service

import (
	"context"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/repository/contract"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/session"
)

const (
	MsgMonitoringEnabled  = "Monitoring is enabled."
	MsgMonitoringDisabled = "Monitoring is disabled."
)

// IAssistantService backs the cockpit UI controls. Every method only touches
// session flags; the orchestrator goroutine picks the change up on its next
// pass.
type IAssistantService interface {
	PressMic(ctx context.Context)
	EnableMonitoring(ctx context.Context) dto.MonitorModeResponse
	DisableMonitoring(ctx context.Context) dto.MonitorModeResponse
	MonitorMode() dto.MonitorModeResponse
	ReceiveLocation(ctx context.Context, req dto.LocationRequest) (*dto.LocationResponse, error)
	State() dto.AssistantStateResponse
}

type assistantService struct {
	session   *session.Session
	speaker   assistant.Speaker
	display   assistant.Display
	geo       ILocationService
	locations contract.ILocationRepository
	logger    logger.ILogger
}

func NewAssistantService(
	sess *session.Session,
	speaker assistant.Speaker,
	display assistant.Display,
	geo ILocationService,
	locations contract.ILocationRepository,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		session:   sess,
		speaker:   speaker,
		display:   display,
		geo:       geo,
		locations: locations,
		logger:    log,
	}
}

func (s *assistantService) PressMic(ctx context.Context) {
	s.session.PressMic()
	s.logger.Debug("ASSISTANT", "Mic pressed", nil)
}

func (s *assistantService) EnableMonitoring(ctx context.Context) dto.MonitorModeResponse {
	s.session.EnableMonitoring()
	s.speaker.Speak(ctx, MsgMonitoringEnabled)
	s.display.UpdateMonitorState(true, true)
	s.logger.Info("ASSISTANT", "Monitoring enabled from UI", nil)
	return s.MonitorMode()
}

func (s *assistantService) DisableMonitoring(ctx context.Context) dto.MonitorModeResponse {
	s.session.DisableMonitoring()
	s.speaker.Speak(ctx, MsgMonitoringDisabled)
	s.display.UpdateMonitorState(false, false)
	s.logger.Info("ASSISTANT", "Monitoring disabled from UI", nil)
	return s.MonitorMode()
}

// MonitorMode is "on" only when both the alert fetch and its voice feedback
// are enabled.
func (s *assistantService) MonitorMode() dto.MonitorModeResponse {
	if s.session.MonitoringEnabled() && s.session.VoiceFeedbackEnabled() {
		return dto.MonitorModeResponse{Mode: "on"}
	}
	return dto.MonitorModeResponse{Mode: "off"}
}

// ReceiveLocation stores the UI position. When the address cannot be
// resolved the coordinates are still saved and the previous override is kept.
func (s *assistantService) ReceiveLocation(ctx context.Context, req dto.LocationRequest) (*dto.LocationResponse, error) {
	at := assistant.Coordinates{Lat: *req.Latitude, Lon: *req.Longitude}

	resolved := true
	address, err := s.geo.ReverseGeocode(ctx, at)
	if err != nil {
		s.logger.Warn("ASSISTANT", "Reverse geocode failed", map[string]interface{}{
			"latitude":  at.Lat,
			"longitude": at.Lon,
			"error":     err.Error(),
		})
		address = entity.UnknownAddress
		resolved = false
	}

	loc := entity.Location{Latitude: at.Lat, Longitude: at.Lon, Address: address}
	if err := s.locations.Save(ctx, loc); err != nil {
		return nil, err
	}
	if resolved {
		s.session.SetLocationOverride(address)
	}

	return &dto.LocationResponse{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Address:   loc.Address,
		Resolved:  resolved,
	}, nil
}

func (s *assistantService) State() dto.AssistantStateResponse {
	snap := s.session.Snapshot()
	return dto.AssistantStateResponse{
		Mode:                 string(snap.Mode),
		MicPressed:           snap.MicPressed,
		MonitoringEnabled:    snap.MonitoringEnabled,
		VoiceFeedbackEnabled: snap.VoiceFeedbackEnabled,
		LocationOverride:     snap.LocationOverride,
	}
}
