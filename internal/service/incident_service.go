package service

import (
	"context"
	"fmt"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/repository/contract"
	"nova-drive-be/pkg/assistant/escalation"
	"nova-drive-be/pkg/events"
)

type IIncidentService interface {
	escalation.IncidentRecorder
	ListIncidents(ctx context.Context, limit, offset int) (*dto.IncidentListResponse, error)
}

type incidentService struct {
	repo   contract.IIncidentRepository
	bus    EventPublisher // optional
	logger logger.ILogger
}

func NewIncidentService(repo contract.IIncidentRepository, bus EventPublisher, log logger.ILogger) IIncidentService {
	return &incidentService{repo: repo, bus: bus, logger: log}
}

func (s *incidentService) RecordIncident(ctx context.Context, in escalation.Incident) error {
	record := &entity.Incident{
		Outcome:   string(in.Outcome),
		StartedAt: in.StartedAt,
		EndedAt:   in.EndedAt,
	}
	if in.Location != nil {
		lat, lon := in.Location.Lat, in.Location.Lon
		record.Latitude = &lat
		record.Longitude = &lon
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("record incident: %w", err)
	}

	if s.bus != nil {
		data := map[string]interface{}{
			"id":         record.Id.String(),
			"outcome":    record.Outcome,
			"started_at": record.StartedAt,
			"ended_at":   record.EndedAt,
		}
		if record.Latitude != nil {
			data["latitude"] = *record.Latitude
			data["longitude"] = *record.Longitude
		}
		if err := s.bus.Publish(ctx, events.New(events.TypeIncidentRecorded, data)); err != nil {
			s.logger.Warn("INCIDENT", "Failed to publish incident event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (s *incidentService) ListIncidents(ctx context.Context, limit, offset int) (*dto.IncidentListResponse, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.FindRecent(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	res := &dto.IncidentListResponse{Total: total, Incidents: make([]dto.IncidentResponse, 0, len(records))}
	for _, r := range records {
		res.Incidents = append(res.Incidents, dto.IncidentResponse{
			Id:        r.Id,
			Outcome:   r.Outcome,
			StartedAt: r.StartedAt,
			EndedAt:   r.EndedAt,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return res, nil
}
