package model

import (
	"time"
)

// TouristState represents the tracking state of a tourist
type TouristState int

const (
	TouristStateActive TouristState = iota
	TouristStateInactive
)

// Tourist is the roster entry for a tracked visitor. The full profile lives
// in out-of-scope identity systems; this is the location/safety projection
// the dashboard polls.
type Tourist struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Lat         float64      `json:"latitude"`
	Lng         float64      `json:"longitude"`
	SafetyScore int          `json:"safety_score"`
	State       TouristState `json:"state"`
	LastSeen    time.Time    `json:"last_seen"`
}

// ToLightVersion returns a lighter version of the tourist for Redis storage
func (t *Tourist) ToLightVersion() *Tourist {
	return &Tourist{
		ID:          t.ID,
		Lat:         t.Lat,
		Lng:         t.Lng,
		SafetyScore: t.SafetyScore,
		State:       t.State,
		LastSeen:    t.LastSeen,
	}
}
