package contract

import (
	"context"

	"nova-drive-be/internal/entity"
)

type IIncidentRepository interface {
	Create(ctx context.Context, incident *entity.Incident) error
	FindRecent(ctx context.Context, limit, offset int) ([]*entity.Incident, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
