package config

import "time"

// Worker intervals
const (
	// GeofenceRefreshInterval defines how often the geofence collection is
	// re-read from the repository (matches the dashboard polling cadence)
	GeofenceRefreshInterval = 30 * time.Second

	// TouristRedisInterval defines how often dirty roster entries are
	// mirrored to Redis
	TouristRedisInterval = 10 * time.Second

	// TouristStaleInterval defines how often tourists without recent pings
	// are flipped to inactive
	TouristStaleInterval = 60 * time.Second
)
