package authoring

import (
	"context"
	"errors"
	"strings"

	"tourguard/internal/model"
	"tourguard/internal/util"
)

// State is the authoring step. Each state carries its data in the Machine's
// draft; transitions not listed as valid for the current state are no-ops.
type State int

const (
	StateIdle State = iota
	StateSelectingLocation
	StateAdjustingRadius
	StateEnteringDetails
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingLocation:
		return "selecting-location"
	case StateAdjustingRadius:
		return "adjusting-radius"
	case StateEnteringDetails:
		return "entering-details"
	default:
		return "unknown"
	}
}

// PreviewSegments is the vertex count used for preview circles.
const PreviewSegments = 64

// Default camera zoom applied when recentering on a picked location.
const locationZoom = 15

var (
	// ErrInvalidTransition is returned by Submit when the machine is not in
	// the entering-details state.
	ErrInvalidTransition = errors.New("transition not valid in current state")

	// ErrNoLocation is returned by Submit when no location has been picked.
	ErrNoLocation = errors.New("draft has no location")
)

// Machine drives the geofence authoring flow: idle list view, location
// selection, radius/type adjustment, details entry, then submit or cancel.
// It owns the draft for the duration of a session and renders previews
// through the map surface on every change. A Machine serves one authoring
// session at a time and is driven from a single event loop; it is not
// goroutine-safe.
type Machine struct {
	state   State
	draft   Draft
	surface MapSurface
	repo    Repository

	unsubscribe   func()
	markerHandle  PreviewHandle
	polygonHandle PreviewHandle
}

// NewMachine returns an idle machine wired to the given surface and
// repository.
func NewMachine(surface MapSurface, repo Repository) *Machine {
	return &Machine{
		state:   StateIdle,
		draft:   NewDraft(),
		surface: surface,
		repo:    repo,
	}
}

// State returns the current authoring step.
func (m *Machine) State() State {
	return m.state
}

// Draft returns a copy of the in-progress draft.
func (m *Machine) Draft() Draft {
	return m.draft
}

// StartCreate begins an authoring session. Valid only from idle; resets the
// draft to defaults and arms click listening on the surface.
func (m *Machine) StartCreate() bool {
	if m.state != StateIdle {
		return false
	}

	m.draft = NewDraft()
	m.state = StateSelectingLocation
	m.unsubscribe = m.surface.OnMapClick(func(p model.GeoPoint) { m.LocationPicked(p) })
	return true
}

// LocationPicked records the clicked point. Valid only while selecting a
// location; points with non-finite or out-of-range coordinates are ignored.
func (m *Machine) LocationPicked(point model.GeoPoint) bool {
	if m.state != StateSelectingLocation {
		return false
	}
	if !point.Valid() {
		return false
	}

	m.draft.Location = &point
	m.state = StateAdjustingRadius

	m.stopListening()
	m.markerHandle = m.surface.DrawPreviewMarker(point)
	m.redrawPolygon()
	m.surface.PanTo(point, locationZoom)
	return true
}

// RadiusChanged updates the draft radius, clamped to the supported range,
// and redraws the preview. Valid only while adjusting the radius.
func (m *Machine) RadiusChanged(radius float64) bool {
	if m.state != StateAdjustingRadius {
		return false
	}

	m.draft.Radius = clampRadius(radius)
	m.redrawPolygon()
	return true
}

// TypeChanged updates the draft zone type and redraws the preview with the
// new styling color. Valid only while adjusting the radius.
func (m *Machine) TypeChanged(zoneType model.ZoneType) bool {
	if m.state != StateAdjustingRadius {
		return false
	}
	if !zoneType.Valid() {
		return false
	}

	m.draft.Type = zoneType
	m.redrawPolygon()
	return true
}

// RemoveAndReselect discards the picked location and returns to location
// selection, re-arming click listening.
func (m *Machine) RemoveAndReselect() bool {
	if m.state != StateAdjustingRadius {
		return false
	}

	m.clearPreview()
	m.draft.Location = nil
	m.state = StateSelectingLocation
	m.unsubscribe = m.surface.OnMapClick(func(p model.GeoPoint) { m.LocationPicked(p) })
	return true
}

// AdvanceToDetails moves to the details entry step. Requires a picked
// location.
func (m *Machine) AdvanceToDetails() bool {
	if m.state != StateAdjustingRadius || m.draft.Location == nil {
		return false
	}

	m.state = StateEnteringDetails
	return true
}

// GoBackToRadius returns from details entry to radius adjustment and
// re-renders the preview from the retained draft.
func (m *Machine) GoBackToRadius() bool {
	if m.state != StateEnteringDetails {
		return false
	}

	m.state = StateAdjustingRadius
	m.redrawPolygon()
	return true
}

// SetName updates the draft name during details entry.
func (m *Machine) SetName(name string) bool {
	if m.state != StateEnteringDetails {
		return false
	}
	m.draft.Name = name
	return true
}

// SetDescription updates the draft description during details entry.
func (m *Machine) SetDescription(description string) bool {
	if m.state != StateEnteringDetails {
		return false
	}
	m.draft.Description = description
	return true
}

// Submit validates the draft and issues the create request. On success the
// preview is cleared, the draft reset and the machine returns to idle. On
// failure the machine stays in entering-details so the user can retry; no
// automatic retry is attempted. The context makes the create call abortable.
func (m *Machine) Submit(ctx context.Context) (*model.Geofence, error) {
	if m.state != StateEnteringDetails {
		return nil, ErrInvalidTransition
	}
	if strings.TrimSpace(m.draft.Name) == "" {
		return nil, model.ErrEmptyName
	}
	if m.draft.Location == nil {
		return nil, ErrNoLocation
	}

	created, err := m.repo.Create(ctx, m.draft.ToInput())
	if err != nil {
		return nil, err
	}

	m.clearPreview()
	m.draft = NewDraft()
	m.state = StateIdle
	return created, nil
}

// Cancel aborts the session from any non-idle state: previews are cleared,
// click listening stops, the draft is discarded. No network call is made;
// an in-flight submit is only abandoned locally (abort it via the submit
// context if needed).
func (m *Machine) Cancel() bool {
	if m.state == StateIdle {
		return false
	}

	m.clearPreview()
	m.stopListening()
	m.draft = NewDraft()
	m.state = StateIdle
	return true
}

// redrawPolygon regenerates the geodesic preview ring from the draft.
func (m *Machine) redrawPolygon() {
	if m.draft.Location == nil {
		return
	}

	if m.polygonHandle != nil {
		m.surface.ClearPreview(m.polygonHandle)
		m.polygonHandle = nil
	}

	ring := util.GeodesicCircle(m.draft.Location.Lat, m.draft.Location.Lng, m.draft.Radius, PreviewSegments)
	m.polygonHandle = m.surface.DrawPreviewPolygon(ring, m.draft.Type.Color())
}

// clearPreview removes both preview shapes if present.
func (m *Machine) clearPreview() {
	var handles []PreviewHandle
	if m.markerHandle != nil {
		handles = append(handles, m.markerHandle)
		m.markerHandle = nil
	}
	if m.polygonHandle != nil {
		handles = append(handles, m.polygonHandle)
		m.polygonHandle = nil
	}
	if len(handles) > 0 {
		m.surface.ClearPreview(handles...)
	}
}

// stopListening detaches the click handler if armed.
func (m *Machine) stopListening() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
