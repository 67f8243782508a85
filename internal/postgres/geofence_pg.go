package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tourguard/internal/authoring"
	"tourguard/internal/model"
	"tourguard/internal/util"
)

var _ authoring.Repository = (*GeofenceRepo)(nil)

// GeofenceRepo is the gorm-backed geofence repository used by the server.
type GeofenceRepo struct {
	db *gorm.DB
}

// NewGeofenceRepo creates a repository over the given connection.
func NewGeofenceRepo(db *gorm.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

// List returns a page of geofences ordered by creation time. Pages start
// at 1; limit is capped at 100.
func (r *GeofenceRepo) List(ctx context.Context, page, limit int) ([]*model.Geofence, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var rows []*model.GeofencePG
	result := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	fences := make([]*model.Geofence, len(rows))
	for i, row := range rows {
		fences[i] = model.GeofenceFromPG(row)
	}
	return fences, nil
}

// Create validates and persists a new geofence, assigning its id.
func (r *GeofenceRepo) Create(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	zoneType := input.Type
	if !zoneType.Valid() {
		zoneType = model.ZoneTypeGeneral
	}

	row := &model.GeofencePG{
		ID:          util.ShortUUID(),
		Name:        input.Name,
		Description: input.Description,
		Type:        zoneType,
		CenterLat:   input.Center.Lat,
		CenterLng:   input.Center.Lng,
		Radius:      input.Radius,
		IsActive:    true,
	}

	if result := r.db.WithContext(ctx).Create(row); result.Error != nil {
		return nil, fmt.Errorf("create geofence: %w", result.Error)
	}
	return model.GeofenceFromPG(row), nil
}

// Update applies the non-nil fields of the partial update.
func (r *GeofenceRepo) Update(ctx context.Context, id string, update *model.GeofenceUpdate) (*model.Geofence, error) {
	var row model.GeofencePG
	if result := r.db.WithContext(ctx).First(&row, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}

	changes := map[string]interface{}{}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, model.ErrEmptyName
		}
		changes["name"] = *update.Name
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.Type != nil {
		changes["type"] = model.ParseZoneType(string(*update.Type))
	}
	if update.Radius != nil {
		if !(*update.Radius > 0) {
			return nil, model.ErrInvalidRadius
		}
		changes["radius"] = *update.Radius
	}
	if update.IsActive != nil {
		changes["is_active"] = *update.IsActive
	}

	if len(changes) > 0 {
		if result := r.db.WithContext(ctx).Model(&row).Updates(changes); result.Error != nil {
			return nil, fmt.Errorf("update geofence: %w", result.Error)
		}
	}
	return model.GeofenceFromPG(&row), nil
}

// Delete soft-deletes a geofence by id.
func (r *GeofenceRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.GeofencePG{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
