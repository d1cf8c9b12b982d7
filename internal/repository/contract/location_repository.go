package contract

import (
	"context"

	"nova-drive-be/internal/entity"
)

// ILocationRepository stores the single last known vehicle location.
type ILocationRepository interface {
	Save(ctx context.Context, loc entity.Location) error
	// Load returns ErrLocationNotFound when nothing was saved yet.
	Load(ctx context.Context) (*entity.Location, error)
}
