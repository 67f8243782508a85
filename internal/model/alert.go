package model

import "time"

// AlertEventType names the geofence event that raised an alert.
type AlertEventType string

const (
	AlertZoneEntry AlertEventType = "zone_entry"
)

// Alert is raised when a tourist enters an active warning or restricted zone.
type Alert struct {
	ID         string         `json:"id"`
	TouristID  string         `json:"tourist_id"`
	GeofenceID string         `json:"geofence_id"`
	ZoneName   string         `json:"zone_name"`
	ZoneType   ZoneType       `json:"zone_type"`
	Event      AlertEventType `json:"event"`
	Location   GeoPoint       `json:"location"`
	Timestamp  time.Time      `json:"timestamp"`
}
