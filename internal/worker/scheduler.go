package worker

import (
	"log"

	"tourguard/internal/service/geofence"
	"tourguard/internal/service/tourist"
)

// StartAllWorkers initializes and starts all background workers
func StartAllWorkers(geofenceSvc *geofence.Service, touristSvc *tourist.Service) {
	log.Println("Starting all workers...")

	StartGeofenceRefreshWorker(geofenceSvc)
	StartTouristWorkers(touristSvc)

	log.Println("All workers started")
}
