// Package client implements the geofence repository over the backend's REST
// API. It is the adapter the dashboard-side authoring flow talks to.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tourguard/internal/authoring"
	"tourguard/internal/model"
)

// DefaultTimeout bounds each request when the caller's context carries no
// deadline.
const DefaultTimeout = 10 * time.Second

var _ authoring.Repository = (*GeofenceClient)(nil)

// GeofenceClient talks to the geofence endpoints of the backend. Failed
// calls are surfaced as errors and never retried here; retry is a user
// action.
type GeofenceClient struct {
	baseURL string
	http    *http.Client
}

// NewGeofenceClient creates a client for the backend at baseURL, e.g.
// "http://localhost:8080".
func NewGeofenceClient(baseURL string) *GeofenceClient {
	return &GeofenceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// wirePoint is the flat creation-payload coordinate pair.
type wirePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// wireGeometry is the GeoJSON-style coordinate holder some list responses
// use: coordinates are [lng, lat].
type wireGeometry struct {
	Coordinates []float64 `json:"coordinates"`
}

// wireGeofence covers every observed response shape for a geofence record.
// Exactly one of Coordinates, Geometry or Center carries the center point.
type wireGeofence struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        string        `json:"type"`
	Coordinates *wirePoint    `json:"coordinates,omitempty"`
	Geometry    *wireGeometry `json:"geometry,omitempty"`
	Center      *wireGeometry `json:"center,omitempty"`
	Radius      float64       `json:"radius"`
	IsActive    *bool         `json:"isActive,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// normalize converts a wire record to the internal model, resolving the
// center from whichever coordinate shape is present. GeoJSON-style arrays
// are [lng, lat] and are swapped into {lat, lng}.
func (w *wireGeofence) normalize() (*model.Geofence, error) {
	var center model.GeoPoint
	switch {
	case w.Coordinates != nil:
		center = model.GeoPoint{Lat: w.Coordinates.Latitude, Lng: w.Coordinates.Longitude}
	case w.Geometry != nil && len(w.Geometry.Coordinates) >= 2:
		center = model.GeoPoint{Lat: w.Geometry.Coordinates[1], Lng: w.Geometry.Coordinates[0]}
	case w.Center != nil && len(w.Center.Coordinates) >= 2:
		center = model.GeoPoint{Lat: w.Center.Coordinates[1], Lng: w.Center.Coordinates[0]}
	default:
		return nil, fmt.Errorf("geofence %s: no coordinates in response", w.ID)
	}
	if !center.Valid() {
		return nil, fmt.Errorf("geofence %s: %w", w.ID, model.ErrInvalidCoordinate)
	}

	active := true
	if w.IsActive != nil {
		active = *w.IsActive
	}

	return &model.Geofence{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Type:        model.ParseZoneType(w.Type),
		Center:      center,
		Radius:      w.Radius,
		IsActive:    active,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}, nil
}

// createRequest is the creation payload: a flat lat/lng pair, not GeoJSON.
type createRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Coordinates wirePoint `json:"coordinates"`
	Radius      float64   `json:"radius"`
}

type updateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Radius      *float64 `json:"radius,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// listResponse accepts both a wrapped {"data": [...]} body and a bare array.
type listResponse struct {
	Data []*wireGeofence `json:"data"`
}

// List fetches one page of geofences.
func (c *GeofenceClient) List(ctx context.Context, page, limit int) ([]*model.Geofence, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, http.MethodGet, "/api/geofences?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var records []*wireGeofence
	if err := json.Unmarshal(body, &records); err != nil {
		var wrapped listResponse
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("decode geofence list: %w", err)
		}
		records = wrapped.Data
	}

	fences := make([]*model.Geofence, 0, len(records))
	for _, record := range records {
		fence, err := record.normalize()
		if err != nil {
			return nil, err
		}
		fences = append(fences, fence)
	}
	return fences, nil
}

// Create persists a new geofence and returns the stored record.
func (c *GeofenceClient) Create(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	payload := createRequest{
		Name:        input.Name,
		Description: input.Description,
		Type:        string(input.Type),
		Coordinates: wirePoint{Latitude: input.Center.Lat, Longitude: input.Center.Lng},
		Radius:      input.Radius,
	}

	body, err := c.do(ctx, http.MethodPost, "/api/geofences", payload)
	if err != nil {
		return nil, err
	}

	var record wireGeofence
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode created geofence: %w", err)
	}
	return record.normalize()
}

// Update applies a partial update by id.
func (c *GeofenceClient) Update(ctx context.Context, id string, update *model.GeofenceUpdate) (*model.Geofence, error) {
	payload := updateRequest{
		Name:        update.Name,
		Description: update.Description,
		Radius:      update.Radius,
		IsActive:    update.IsActive,
	}
	if update.Type != nil {
		t := string(*update.Type)
		payload.Type = &t
	}

	body, err := c.do(ctx, http.MethodPatch, "/api/geofences/"+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}

	var record wireGeofence
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode updated geofence: %w", err)
	}
	return record.normalize()
}

// Delete removes a geofence by id.
func (c *GeofenceClient) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/geofences/"+url.PathEscape(id), nil)
	return err
}

// do issues one request and returns the response body, mapping non-2xx
// responses to errors carrying the backend's message.
func (c *GeofenceClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geofence backend unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("geofence backend: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("geofence backend: unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
