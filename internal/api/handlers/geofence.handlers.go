package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tourguard/internal/mapsurface"
	"tourguard/internal/model"
	redisclient "tourguard/internal/redis"
	geofencesvc "tourguard/internal/service/geofence"
	"tourguard/internal/util"
)

const (
	statsCacheKey = "geofence:stats"
	statsCacheTTL = 15 * time.Second

	previewSegments = 64
)

// GeofenceHandler serves the geofence CRUD, stats and preview endpoints.
type GeofenceHandler struct {
	svc *geofencesvc.Service
}

// SetupGeofenceHandlers registers the geofence management endpoints
func SetupGeofenceHandlers(router *gin.RouterGroup, svc *geofencesvc.Service) {
	h := &GeofenceHandler{svc: svc}

	group := router.Group("/geofences")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/stats", h.Stats)
	group.POST("/preview", h.Preview)
	group.GET("/containing", h.Containing)
	group.PATCH("/:id", h.Update)
	group.PATCH("/:id/toggle", h.Toggle)
	group.DELETE("/:id", h.Delete)
}

// geometryResponse is the GeoJSON-style center holder in responses:
// coordinates are [lng, lat].
type geometryResponse struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type geofenceResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Type        string           `json:"type"`
	Center      geometryResponse `json:"center"`
	Radius      float64          `json:"radius"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toGeofenceResponse(f *model.Geofence) geofenceResponse {
	return geofenceResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Type:        string(f.Type),
		Center: geometryResponse{
			Type:        "Point",
			Coordinates: []float64{f.Center.Lng, f.Center.Lat}, // [lon, lat]
		},
		Radius:    f.Radius,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// coordinatesRequest is the flat lat/lng pair used in creation payloads.
type coordinatesRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type createGeofenceRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Coordinates coordinatesRequest `json:"coordinates"`
	Radius      float64            `json:"radius"`
}

type updateGeofenceRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	Radius      *float64 `json:"radius"`
	IsActive    *bool    `json:"isActive"`
}

// List serves a page of the in-memory collection.
func (h *GeofenceHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	fences := h.svc.All()
	start := (page - 1) * limit
	if start > len(fences) {
		start = len(fences)
	}
	end := start + limit
	if end > len(fences) {
		end = len(fences)
	}

	results := make([]geofenceResponse, 0, end-start)
	for _, f := range fences[start:end] {
		results = append(results, toGeofenceResponse(f))
	}
	c.JSON(http.StatusOK, results)
}

// Create validates and persists a new geofence.
func (h *GeofenceHandler) Create(c *gin.Context) {
	var req createGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input := &model.GeofenceInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        model.ParseZoneType(req.Type),
		Center:      model.GeoPoint{Lat: req.Coordinates.Latitude, Lng: req.Coordinates.Longitude},
		Radius:      req.Radius,
	}

	created, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create geofence"})
		return
	}

	c.JSON(http.StatusCreated, toGeofenceResponse(created))
}

// Update applies a partial update by id.
func (h *GeofenceHandler) Update(c *gin.Context) {
	var req updateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	update := &model.GeofenceUpdate{
		Name:        req.Name,
		Description: req.Description,
		Radius:      req.Radius,
		IsActive:    req.IsActive,
	}
	if req.Type != nil {
		t := model.ParseZoneType(*req.Type)
		update.Type = &t
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		h.writeMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGeofenceResponse(updated))
}

// Toggle flips the active flag.
func (h *GeofenceHandler) Toggle(c *gin.Context) {
	updated, err := h.svc.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGeofenceResponse(updated))
}

// Delete removes a geofence by id.
func (h *GeofenceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stats serves the derived statistics, cached in Redis for the polling
// dashboard.
func (h *GeofenceHandler) Stats(c *gin.Context) {
	if client := redisclient.GetClient(); client != nil {
		if cached, err := redisclient.Get(statsCacheKey); err == nil && cached != "" {
			var stats geofencesvc.Stats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				c.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	stats := h.svc.Stats()

	if client := redisclient.GetClient(); client != nil {
		if data, err := json.Marshal(stats); err == nil {
			_ = redisclient.Set(statsCacheKey, data, statsCacheTTL)
		}
	}

	c.JSON(http.StatusOK, stats)
}

type previewRequest struct {
	Coordinates coordinatesRequest `json:"coordinates"`
	Radius      float64            `json:"radius"`
	Type        string             `json:"type"`
}

// Preview renders the geodesic circle for an in-progress draft as a GeoJSON
// feature collection the dashboard can draw directly.
func (h *GeofenceHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	point := model.GeoPoint{Lat: req.Coordinates.Latitude, Lng: req.Coordinates.Longitude}
	if !point.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidCoordinate.Error()})
		return
	}
	if !(req.Radius > 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidRadius.Error()})
		return
	}

	zoneType := model.ParseZoneType(req.Type)
	ring := util.GeodesicCircle(point.Lat, point.Lng, req.Radius, previewSegments)

	surface := mapsurface.NewGeoJSONSurface()
	surface.DrawPreviewMarker(point)
	surface.DrawPreviewPolygon(ring, zoneType.Color())

	c.JSON(http.StatusOK, surface.FeatureCollection())
}

// Containing returns the active geofences containing a coordinate.
func (h *GeofenceHandler) Containing(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng parameter"})
		return
	}
	if !util.ValidCoordinate(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidCoordinate.Error()})
		return
	}

	fences := h.svc.ContainingPoint(lat, lng)
	results := make([]geofenceResponse, 0, len(fences))
	for _, f := range fences {
		results = append(results, toGeofenceResponse(f))
	}
	c.JSON(http.StatusOK, results)
}

func (h *GeofenceHandler) writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "geofence operation failed"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, model.ErrEmptyName) ||
		errors.Is(err, model.ErrInvalidCoordinate) ||
		errors.Is(err, model.ErrInvalidRadius)
}
