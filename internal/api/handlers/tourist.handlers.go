package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tourguard/internal/model"
	touristsvc "tourguard/internal/service/tourist"
)

// TouristHandler serves the roster and alerts panel endpoints.
type TouristHandler struct {
	svc *touristsvc.Service
}

// SetupTouristHandlers registers the tourist roster and alert endpoints
func SetupTouristHandlers(router *gin.RouterGroup, svc *touristsvc.Service) {
	h := &TouristHandler{svc: svc}

	router.GET("/tourists", h.Roster)
	router.POST("/tourists/:id/location", h.RecordLocation)
	router.GET("/alerts", h.Alerts)
}

type touristResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SafetyScore int     `json:"safetyScore"`
	Active      bool    `json:"active"`
	LastSeen    int64   `json:"lastSeen"`
}

func toTouristResponse(t *model.Tourist) touristResponse {
	return touristResponse{
		ID:          t.ID,
		Name:        t.Name,
		Latitude:    t.Lat,
		Longitude:   t.Lng,
		SafetyScore: t.SafetyScore,
		Active:      t.State == model.TouristStateActive,
		LastSeen:    t.LastSeen.Unix(),
	}
}

// Roster returns the tracked tourists, most recently seen first.
func (h *TouristHandler) Roster(c *gin.Context) {
	tourists := h.svc.Roster()
	results := make([]touristResponse, len(tourists))
	for i, t := range tourists {
		results[i] = toTouristResponse(t)
	}
	c.JSON(http.StatusOK, results)
}

type locationPingRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RecordLocation ingests a tourist location ping.
func (h *TouristHandler) RecordLocation(c *gin.Context) {
	var req locationPingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t, err := h.svc.RecordLocation(c.Request.Context(), c.Param("id"), req.Name, req.Latitude, req.Longitude)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCoordinate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record location"})
		return
	}

	c.JSON(http.StatusOK, toTouristResponse(t))
}

type alertResponse struct {
	ID         string    `json:"id"`
	TouristID  string    `json:"touristId"`
	GeofenceID string    `json:"geofenceId"`
	ZoneName   string    `json:"zoneName"`
	ZoneType   string    `json:"zoneType"`
	Event      string    `json:"event"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
}

// Alerts returns recorded zone-entry alerts, newest first.
func (h *TouristHandler) Alerts(c *gin.Context) {
	alerts := h.svc.Alerts()
	results := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		results[i] = alertResponse{
			ID:         a.ID,
			TouristID:  a.TouristID,
			GeofenceID: a.GeofenceID,
			ZoneName:   a.ZoneName,
			ZoneType:   string(a.ZoneType),
			Event:      string(a.Event),
			Latitude:   a.Location.Lat,
			Longitude:  a.Location.Lng,
			Timestamp:  a.Timestamp,
		}
	}
	c.JSON(http.StatusOK, results)
}
