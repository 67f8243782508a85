package authoring

import (
	"tourguard/internal/model"
)

// Radius limits exposed by the authoring UI. Values outside the range are
// clamped, not rejected.
const (
	MinRadiusMeters     = 50
	MaxRadiusMeters     = 5000
	DefaultRadiusMeters = 500
)

// RadiusPresets are the discrete quick-select radii offered next to the
// slider.
var RadiusPresets = []float64{100, 250, 500, 1000, 2000}

// Draft is the in-progress, unpersisted state of a geofence being authored.
// It exists only between StartCreate and Submit/Cancel.
type Draft struct {
	Location    *model.GeoPoint
	Radius      float64
	Type        model.ZoneType
	Name        string
	Description string
}

// NewDraft returns a draft with authoring defaults.
func NewDraft() Draft {
	return Draft{
		Radius: DefaultRadiusMeters,
		Type:   model.ZoneTypeSafe,
	}
}

// ToInput converts a complete draft into a create request.
func (d *Draft) ToInput() *model.GeofenceInput {
	input := &model.GeofenceInput{
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		Radius:      d.Radius,
	}
	if d.Location != nil {
		input.Center = *d.Location
	}
	return input
}

// clampRadius keeps the radius inside the supported authoring range.
func clampRadius(radius float64) float64 {
	if radius < MinRadiusMeters {
		return MinRadiusMeters
	}
	if radius > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return radius
}
