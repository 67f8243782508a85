package model

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// ZoneType classifies a geofence for safety semantics and styling.
type ZoneType string

const (
	ZoneTypeSafe       ZoneType = "safe"
	ZoneTypeWarning    ZoneType = "warning"
	ZoneTypeRestricted ZoneType = "restricted"
	// ZoneTypeGeneral is the fallback category for zones without a safety
	// classification.
	ZoneTypeGeneral ZoneType = "general"
)

// Valid reports whether t is one of the known zone types.
func (t ZoneType) Valid() bool {
	switch t {
	case ZoneTypeSafe, ZoneTypeWarning, ZoneTypeRestricted, ZoneTypeGeneral:
		return true
	}
	return false
}

// Color returns the preview styling color for the zone type.
func (t ZoneType) Color() string {
	switch t {
	case ZoneTypeSafe:
		return "#22c55e"
	case ZoneTypeWarning:
		return "#f97316"
	case ZoneTypeRestricted:
		return "#ef4444"
	default:
		return "#3b82f6"
	}
}

// ParseZoneType maps a wire string to a ZoneType, falling back to general.
func ParseZoneType(s string) ZoneType {
	t := ZoneType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return ZoneTypeGeneral
	}
	return t
}

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether the point has finite, in-range coordinates.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Validation errors shared by the repository implementations and handlers.
var (
	ErrEmptyName         = errors.New("geofence name must not be empty")
	ErrInvalidCoordinate = errors.New("coordinates must be finite and within [-90,90] lat / [-180,180] lng")
	ErrInvalidRadius     = errors.New("radius must be a positive number of meters")
	ErrNotFound          = errors.New("geofence not found")
)

// GeofencePG model for PostgreSQL storage
type GeofencePG struct {
	ID          string   `gorm:"primaryKey"`
	Name        string   `gorm:"size:255;not null"`
	Description string   `gorm:"type:text"`
	Type        ZoneType `gorm:"size:50;not null"`
	CenterLat   float64  `gorm:"not null"`
	CenterLng   float64  `gorm:"not null"`
	Radius      float64  `gorm:"not null"`
	IsActive    bool     `gorm:"not null;default:true"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (GeofencePG) TableName() string {
	return "geofences"
}

// Geofence in-memory model
type Geofence struct {
	ID          string
	Name        string
	Description string
	Type        ZoneType
	Center      GeoPoint
	Radius      float64 // meters
	IsActive    bool

	UpdatedAt time.Time
	CreatedAt time.Time

	// Cached data for quick access
	Polygon     *orb.Polygon // Geodesic ring around Center for containment checks
	BoundingBox *orb.Bound   // Bounds of the polygon for quick checks
}

// GeofenceFromPG creates a Geofence from GeofencePG
func GeofenceFromPG(pg *GeofencePG) *Geofence {
	return &Geofence{
		ID:          pg.ID,
		Name:        pg.Name,
		Description: pg.Description,
		Type:        pg.Type,
		Center:      GeoPoint{Lat: pg.CenterLat, Lng: pg.CenterLng},
		Radius:      pg.Radius,
		IsActive:    pg.IsActive,
		UpdatedAt:   pg.UpdatedAt,
		CreatedAt:   pg.CreatedAt,
	}
}

// ToPG converts the in-memory model back to its PostgreSQL shape.
func (g *Geofence) ToPG() *GeofencePG {
	return &GeofencePG{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Type:        g.Type,
		CenterLat:   g.Center.Lat,
		CenterLng:   g.Center.Lng,
		Radius:      g.Radius,
		IsActive:    g.IsActive,
		UpdatedAt:   g.UpdatedAt,
		CreatedAt:   g.CreatedAt,
	}
}

// GeofenceInput carries the fields required to create a geofence.
type GeofenceInput struct {
	Name        string
	Description string
	Type        ZoneType
	Center      GeoPoint
	Radius      float64
}

// Validate rejects inputs that must never reach the backend.
func (in *GeofenceInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if !in.Center.Valid() {
		return ErrInvalidCoordinate
	}
	if !(in.Radius > 0) {
		return ErrInvalidRadius
	}
	return nil
}

// GeofenceUpdate carries a partial update; nil fields are left unchanged.
type GeofenceUpdate struct {
	Name        *string
	Description *string
	Type        *ZoneType
	Radius      *float64
	IsActive    *bool
}
