package worker

import (
	"context"
	"log"
	"time"

	"tourguard/internal/config"
	"tourguard/internal/service/geofence"
)

// StartGeofenceRefreshWorker starts the worker that periodically re-reads
// the geofence collection from the repository
func StartGeofenceRefreshWorker(svc *geofence.Service) {
	ticker := time.NewTicker(config.GeofenceRefreshInterval)
	go func() {
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), config.GeofenceRefreshInterval)
			if err := svc.Reload(ctx); err != nil {
				log.Printf("Geofence refresh failed, keeping stale collection: %v", err)
			}
			cancel()
		}
	}()

	log.Println("Geofence refresh worker started with interval:", config.GeofenceRefreshInterval)
}
