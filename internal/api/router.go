package api

import (
	"github.com/gin-gonic/gin"

	routes "tourguard/internal/api/handlers"
	"tourguard/internal/service/geofence"
	"tourguard/internal/service/tourist"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, geofenceSvc *geofence.Service, touristSvc *tourist.Service) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""))

	// Setup geofence handlers
	routes.SetupGeofenceHandlers(api, geofenceSvc)

	// Setup tourist and alert handlers
	routes.SetupTouristHandlers(api, touristSvc)
}
