package geofence

import (
	"tourguard/internal/model"
)

// Stats are the aggregate counts the dashboard header displays. They are
// derived from the in-memory collection and recomputed after every reload.
type Stats struct {
	Total  int                    `json:"total"`
	Active int                    `json:"active"`
	ByType map[model.ZoneType]int `json:"by_type"`
}

// ComputeStats tallies the collection. Pure function; inactive fences count
// toward Total and ByType but not Active.
func ComputeStats(fences []*model.Geofence) Stats {
	stats := Stats{
		ByType: map[model.ZoneType]int{
			model.ZoneTypeSafe:       0,
			model.ZoneTypeWarning:    0,
			model.ZoneTypeRestricted: 0,
			model.ZoneTypeGeneral:    0,
		},
	}

	for _, f := range fences {
		stats.Total++
		if f.IsActive {
			stats.Active++
		}
		stats.ByType[model.ParseZoneType(string(f.Type))]++
	}
	return stats
}
