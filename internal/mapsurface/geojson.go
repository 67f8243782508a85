// Package mapsurface provides a headless MapSurface implementation that
// renders previews into a GeoJSON feature collection instead of a map widget.
// The API preview endpoint uses it to return ready-to-draw shapes to the
// dashboard, and tests use it to observe authoring side effects.
package mapsurface

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tourguard/internal/authoring"
	"tourguard/internal/model"
)

type shape struct {
	id      int
	feature *geojson.Feature
}

// GeoJSONSurface accumulates preview shapes as GeoJSON features. The zero
// value is not usable; create it with NewGeoJSONSurface.
type GeoJSONSurface struct {
	nextID int
	shapes []*shape
	clicks map[int]func(model.GeoPoint)
	camera model.GeoPoint
	zoom   float64
	panned bool
}

// NewGeoJSONSurface creates an empty surface.
func NewGeoJSONSurface() *GeoJSONSurface {
	return &GeoJSONSurface{
		clicks: make(map[int]func(model.GeoPoint)),
	}
}

// OnMapClick registers a click handler and returns its unsubscribe function.
func (s *GeoJSONSurface) OnMapClick(handler func(model.GeoPoint)) func() {
	s.nextID++
	id := s.nextID
	s.clicks[id] = handler
	return func() {
		delete(s.clicks, id)
	}
}

// Click simulates a user click, delivering the point to registered handlers.
func (s *GeoJSONSurface) Click(point model.GeoPoint) {
	// Copy first: a handler may unsubscribe itself while running.
	handlers := make([]func(model.GeoPoint), 0, len(s.clicks))
	for _, h := range s.clicks {
		handlers = append(handlers, h)
	}
	for _, h := range handlers {
		h(point)
	}
}

// ListenerCount returns the number of attached click handlers.
func (s *GeoJSONSurface) ListenerCount() int {
	return len(s.clicks)
}

// DrawPreviewMarker renders a point feature tagged as a marker.
func (s *GeoJSONSurface) DrawPreviewMarker(point model.GeoPoint) authoring.PreviewHandle {
	feature := geojson.NewFeature(orb.Point{point.Lng, point.Lat}) // [lon, lat]
	feature.Properties["kind"] = "preview-marker"

	s.nextID++
	s.shapes = append(s.shapes, &shape{id: s.nextID, feature: feature})
	return s.nextID
}

// DrawPreviewPolygon renders a polygon feature with the styling color.
func (s *GeoJSONSurface) DrawPreviewPolygon(ring orb.Ring, color string) authoring.PreviewHandle {
	feature := geojson.NewFeature(orb.Polygon{ring})
	feature.Properties["kind"] = "preview-polygon"
	feature.Properties["color"] = color

	s.nextID++
	s.shapes = append(s.shapes, &shape{id: s.nextID, feature: feature})
	return s.nextID
}

// ClearPreview removes the shapes behind the handles. Unknown handles are
// ignored, and clearing an empty surface is a no-op.
func (s *GeoJSONSurface) ClearPreview(handles ...authoring.PreviewHandle) {
	for _, h := range handles {
		id, ok := h.(int)
		if !ok {
			continue
		}
		for i, sh := range s.shapes {
			if sh.id == id {
				s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
				break
			}
		}
	}
}

// PanTo records the camera position.
func (s *GeoJSONSurface) PanTo(point model.GeoPoint, zoom float64) {
	s.camera = point
	s.zoom = zoom
	s.panned = true
}

// Camera returns the last pan target and whether a pan happened.
func (s *GeoJSONSurface) Camera() (model.GeoPoint, float64, bool) {
	return s.camera, s.zoom, s.panned
}

// FeatureCollection returns the currently drawn shapes.
func (s *GeoJSONSurface) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, sh := range s.shapes {
		fc.Append(sh.feature)
	}
	return fc
}

// ShapeCount returns the number of currently drawn shapes.
func (s *GeoJSONSurface) ShapeCount() int {
	return len(s.shapes)
}
