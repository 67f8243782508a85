package authoring

import (
	"context"

	"tourguard/internal/model"
)

// Repository is the boundary to geofence persistence. Both the gorm-backed
// server repository and the REST client implement it. Transport and backend
// validation failures are surfaced as plain errors; the caller decides
// whether to retry.
type Repository interface {
	List(ctx context.Context, page, limit int) ([]*model.Geofence, error)
	Create(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error)
	Update(ctx context.Context, id string, update *model.GeofenceUpdate) (*model.Geofence, error)
	Delete(ctx context.Context, id string) error
}
