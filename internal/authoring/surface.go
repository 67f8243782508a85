package authoring

import (
	"github.com/paulmach/orb"

	"tourguard/internal/model"
)

// PreviewHandle identifies a shape drawn on a map surface so it can be
// removed later. Handles are opaque to the state machine; it only stores
// whatever the surface returned and hands it back on clear.
type PreviewHandle interface{}

// MapSurface abstracts the mapping SDK capabilities the authoring flow
// consumes. Implementations range from a real map widget to the headless
// GeoJSON surface used for server-side previews and tests.
type MapSurface interface {
	// OnMapClick registers a handler fired once per user click and returns
	// an unsubscribe function. Attach/detach may happen repeatedly within
	// a single authoring session.
	OnMapClick(handler func(model.GeoPoint)) (unsubscribe func())

	// DrawPreviewMarker renders a temporary marker at the given point.
	DrawPreviewMarker(point model.GeoPoint) PreviewHandle

	// DrawPreviewPolygon renders a temporary polygon ring with the given
	// styling color.
	DrawPreviewPolygon(ring orb.Ring, color string) PreviewHandle

	// ClearPreview removes previously drawn shapes. Unknown or already
	// cleared handles are ignored.
	ClearPreview(handles ...PreviewHandle)

	// PanTo moves the camera toward the point. Best effort; not required
	// to complete synchronously.
	PanTo(point model.GeoPoint, zoom float64)
}
