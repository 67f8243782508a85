package authoring

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"tourguard/internal/model"
)

type drawnShape struct {
	kind  string
	ring  orb.Ring
	color string
	point model.GeoPoint
}

// fakeSurface records draw/clear/pan calls so transitions can be asserted.
type fakeSurface struct {
	nextHandle  int
	shapes      map[int]drawnShape
	listeners   int
	lastPan     model.GeoPoint
	panCount    int
	clearCalls  int
	unsubCalls  int
	lastHandler func(model.GeoPoint)
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{shapes: map[int]drawnShape{}}
}

func (s *fakeSurface) OnMapClick(handler func(model.GeoPoint)) func() {
	s.listeners++
	s.lastHandler = handler
	return func() {
		s.listeners--
		s.unsubCalls++
	}
}

func (s *fakeSurface) DrawPreviewMarker(point model.GeoPoint) PreviewHandle {
	s.nextHandle++
	s.shapes[s.nextHandle] = drawnShape{kind: "marker", point: point}
	return s.nextHandle
}

func (s *fakeSurface) DrawPreviewPolygon(ring orb.Ring, color string) PreviewHandle {
	s.nextHandle++
	s.shapes[s.nextHandle] = drawnShape{kind: "polygon", ring: ring, color: color}
	return s.nextHandle
}

func (s *fakeSurface) ClearPreview(handles ...PreviewHandle) {
	s.clearCalls++
	for _, h := range handles {
		if id, ok := h.(int); ok {
			delete(s.shapes, id)
		}
	}
}

func (s *fakeSurface) PanTo(point model.GeoPoint, zoom float64) {
	s.lastPan = point
	s.panCount++
}

func (s *fakeSurface) polygons() []drawnShape {
	var result []drawnShape
	for _, sh := range s.shapes {
		if sh.kind == "polygon" {
			result = append(result, sh)
		}
	}
	return result
}

// fakeRepo records create calls and answers with a canned geofence.
type fakeRepo struct {
	createFn   func(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error)
	createCall int
	lastInput  *model.GeofenceInput
}

func (r *fakeRepo) List(ctx context.Context, page, limit int) ([]*model.Geofence, error) {
	return nil, nil
}

func (r *fakeRepo) Create(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error) {
	r.createCall++
	r.lastInput = input
	if r.createFn != nil {
		return r.createFn(ctx, input)
	}
	return &model.Geofence{
		ID:       "gf-1",
		Name:     input.Name,
		Type:     input.Type,
		Center:   input.Center,
		Radius:   input.Radius,
		IsActive: true,
	}, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, update *model.GeofenceUpdate) (*model.Geofence, error) {
	return nil, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func TestStartCreate_OnlyFromIdle(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})

	if !m.StartCreate() {
		t.Fatal("StartCreate from idle should succeed")
	}
	if m.State() != StateSelectingLocation {
		t.Fatalf("expected selecting-location, got %s", m.State())
	}
	if surface.listeners != 1 {
		t.Fatalf("expected 1 click listener, got %d", surface.listeners)
	}

	if m.StartCreate() {
		t.Error("StartCreate while already authoring should be a no-op")
	}

	d := m.Draft()
	if d.Radius != DefaultRadiusMeters || d.Type != model.ZoneTypeSafe || d.Location != nil {
		t.Errorf("draft not reset to defaults: %+v", d)
	}
}

func TestLocationPicked_MovesToAdjustingRadius(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})
	m.StartCreate()

	point := model.GeoPoint{Lat: 26.1445, Lng: 91.7362}
	if !m.LocationPicked(point) {
		t.Fatal("LocationPicked should succeed")
	}
	if m.State() != StateAdjustingRadius {
		t.Fatalf("expected adjusting-radius, got %s", m.State())
	}
	if surface.listeners != 0 {
		t.Errorf("click listener should be detached, have %d", surface.listeners)
	}
	if len(surface.shapes) != 2 {
		t.Errorf("expected marker + polygon drawn, have %d shapes", len(surface.shapes))
	}
	if surface.panCount != 1 || surface.lastPan != point {
		t.Errorf("camera should pan to the picked point")
	}

	polys := surface.polygons()
	if len(polys) != 1 {
		t.Fatalf("expected one preview polygon, got %d", len(polys))
	}
	if len(polys[0].ring) != PreviewSegments+1 {
		t.Errorf("expected %d ring vertices, got %d", PreviewSegments+1, len(polys[0].ring))
	}
	if polys[0].color != model.ZoneTypeSafe.Color() {
		t.Errorf("default preview color should be the safe color, got %s", polys[0].color)
	}
}

func TestLocationPicked_RejectsInvalidPoint(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})
	m.StartCreate()

	for _, p := range []model.GeoPoint{
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: -181},
	} {
		if m.LocationPicked(p) {
			t.Errorf("point %+v should be rejected", p)
		}
	}
	if m.State() != StateSelectingLocation {
		t.Errorf("state should be unchanged after rejected points")
	}
}

func TestRadiusChanged_ClampsAndRedraws(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})
	m.StartCreate()
	m.LocationPicked(model.GeoPoint{Lat: 26.1445, Lng: 91.7362})

	if !m.RadiusChanged(1000) {
		t.Fatal("RadiusChanged should succeed")
	}
	if m.Draft().Radius != 1000 {
		t.Errorf("expected radius 1000, got %v", m.Draft().Radius)
	}

	m.RadiusChanged(10)
	if m.Draft().Radius != MinRadiusMeters {
		t.Errorf("radius below minimum should clamp to %d, got %v", MinRadiusMeters, m.Draft().Radius)
	}

	m.RadiusChanged(99999)
	if m.Draft().Radius != MaxRadiusMeters {
		t.Errorf("radius above maximum should clamp to %d, got %v", MaxRadiusMeters, m.Draft().Radius)
	}

	// Exactly one preview polygon regardless of how many redraws happened
	if len(surface.polygons()) != 1 {
		t.Errorf("stale preview polygons left behind: %d", len(surface.polygons()))
	}
}

func TestTypeChanged_UpdatesPreviewColor(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})
	m.StartCreate()
	m.LocationPicked(model.GeoPoint{Lat: 26.1445, Lng: 91.7362})

	if !m.TypeChanged(model.ZoneTypeRestricted) {
		t.Fatal("TypeChanged should succeed")
	}

	polys := surface.polygons()
	if len(polys) != 1 {
		t.Fatalf("expected one preview polygon, got %d", len(polys))
	}
	if polys[0].color != model.ZoneTypeRestricted.Color() {
		t.Errorf("expected restricted color, got %s", polys[0].color)
	}
}

func TestIllegalTransitions_AreNoOps(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})

	// All of these are invalid from idle
	if m.RadiusChanged(1000) {
		t.Error("RadiusChanged from idle should be a no-op")
	}
	if m.TypeChanged(model.ZoneTypeWarning) {
		t.Error("TypeChanged from idle should be a no-op")
	}
	if m.LocationPicked(model.GeoPoint{Lat: 1, Lng: 1}) {
		t.Error("LocationPicked from idle should be a no-op")
	}
	if m.AdvanceToDetails() {
		t.Error("AdvanceToDetails from idle should be a no-op")
	}
	if m.GoBackToRadius() {
		t.Error("GoBackToRadius from idle should be a no-op")
	}
	if m.RemoveAndReselect() {
		t.Error("RemoveAndReselect from idle should be a no-op")
	}
	if m.Cancel() {
		t.Error("Cancel from idle should be a no-op")
	}
	if m.State() != StateIdle {
		t.Errorf("state changed by illegal transitions: %s", m.State())
	}

	defaults := NewDraft()
	if m.Draft() != defaults {
		t.Errorf("draft changed by illegal transitions: %+v", m.Draft())
	}

	// AdvanceToDetails requires a location
	m.StartCreate()
	if m.AdvanceToDetails() {
		t.Error("AdvanceToDetails while selecting location should be a no-op")
	}
}

func TestRemoveAndReselect_RearmsListening(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})
	m.StartCreate()
	m.LocationPicked(model.GeoPoint{Lat: 26.1445, Lng: 91.7362})

	if !m.RemoveAndReselect() {
		t.Fatal("RemoveAndReselect should succeed")
	}
	if m.State() != StateSelectingLocation {
		t.Fatalf("expected selecting-location, got %s", m.State())
	}
	if m.Draft().Location != nil {
		t.Error("location should be cleared")
	}
	if len(surface.shapes) != 0 {
		t.Errorf("preview shapes should be cleared, have %d", len(surface.shapes))
	}
	if surface.listeners != 1 {
		t.Errorf("click listening should be re-armed, have %d listeners", surface.listeners)
	}

	// Draft keeps the adjusted radius and type across the reselect
	if m.Draft().Radius != DefaultRadiusMeters {
		t.Errorf("unexpected radius after reselect: %v", m.Draft().Radius)
	}
}

func TestCancel_ResetsDraftFromEveryState(t *testing.T) {
	point := model.GeoPoint{Lat: 26.1445, Lng: 91.7362}
	defaults := NewDraft()

	scenarios := []struct {
		name  string
		drive func(m *Machine)
	}{
		{"from selecting location", func(m *Machine) {
			m.StartCreate()
		}},
		{"from adjusting radius", func(m *Machine) {
			m.StartCreate()
			m.LocationPicked(point)
			m.RadiusChanged(2000)
			m.TypeChanged(model.ZoneTypeWarning)
		}},
		{"from entering details", func(m *Machine) {
			m.StartCreate()
			m.LocationPicked(point)
			m.AdvanceToDetails()
			m.SetName("Half-done zone")
			m.SetDescription("abandoned")
		}},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			surface := newFakeSurface()
			repo := &fakeRepo{}
			m := NewMachine(surface, repo)
			sc.drive(m)

			if !m.Cancel() {
				t.Fatal("Cancel should succeed from a non-idle state")
			}
			if m.State() != StateIdle {
				t.Fatalf("expected idle after cancel, got %s", m.State())
			}
			if m.Draft() != defaults {
				t.Errorf("draft not reset to defaults: %+v", m.Draft())
			}
			if len(surface.shapes) != 0 {
				t.Errorf("preview shapes not cleared: %d", len(surface.shapes))
			}
			if surface.listeners != 0 {
				t.Errorf("click listener still attached")
			}
			if repo.createCall != 0 {
				t.Errorf("cancel must not hit the repository")
			}
		})
	}
}

func TestSubmit_RequiresCompleteDraft(t *testing.T) {
	point := model.GeoPoint{Lat: 26.1445, Lng: 91.7362}

	t.Run("empty name", func(t *testing.T) {
		repo := &fakeRepo{}
		m := NewMachine(newFakeSurface(), repo)
		m.StartCreate()
		m.LocationPicked(point)
		m.AdvanceToDetails()

		if _, err := m.Submit(context.Background()); !errors.Is(err, model.ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName, got %v", err)
		}
		if repo.createCall != 0 {
			t.Error("no repository call expected for invalid draft")
		}
		if m.State() != StateEnteringDetails {
			t.Errorf("machine should stay in entering-details, got %s", m.State())
		}
	})

	t.Run("whitespace name", func(t *testing.T) {
		repo := &fakeRepo{}
		m := NewMachine(newFakeSurface(), repo)
		m.StartCreate()
		m.LocationPicked(point)
		m.AdvanceToDetails()
		m.SetName("   ")

		if _, err := m.Submit(context.Background()); !errors.Is(err, model.ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName, got %v", err)
		}
		if repo.createCall != 0 {
			t.Error("no repository call expected for invalid draft")
		}
	})

	t.Run("wrong state", func(t *testing.T) {
		repo := &fakeRepo{}
		m := NewMachine(newFakeSurface(), repo)

		if _, err := m.Submit(context.Background()); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestSubmit_FailureKeepsState(t *testing.T) {
	surface := newFakeSurface()
	repo := &fakeRepo{
		createFn: func(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	m := NewMachine(surface, repo)
	m.StartCreate()
	m.LocationPicked(model.GeoPoint{Lat: 26.1445, Lng: 91.7362})
	m.AdvanceToDetails()
	m.SetName("Doomed Zone")

	if _, err := m.Submit(context.Background()); err == nil {
		t.Fatal("expected submit to fail")
	}
	if m.State() != StateEnteringDetails {
		t.Errorf("failed submit should keep entering-details, got %s", m.State())
	}
	if m.Draft().Name != "Doomed Zone" {
		t.Errorf("draft should be retained after a failed submit")
	}

	// Retry after the backend recovers
	repo.createFn = nil
	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("expected idle after successful retry, got %s", m.State())
	}
}

func TestGoBackToRadius_RedrawsPreview(t *testing.T) {
	surface := newFakeSurface()
	m := NewMachine(surface, &fakeRepo{})
	m.StartCreate()
	m.LocationPicked(model.GeoPoint{Lat: 26.1445, Lng: 91.7362})
	m.RadiusChanged(2000)
	m.AdvanceToDetails()

	if !m.GoBackToRadius() {
		t.Fatal("GoBackToRadius should succeed")
	}
	if m.State() != StateAdjustingRadius {
		t.Fatalf("expected adjusting-radius, got %s", m.State())
	}
	if m.Draft().Radius != 2000 {
		t.Errorf("draft radius should be retained, got %v", m.Draft().Radius)
	}
	if len(surface.polygons()) != 1 {
		t.Errorf("expected a single re-rendered preview polygon")
	}
}

func TestAuthoringFlow_EndToEnd(t *testing.T) {
	surface := newFakeSurface()
	repo := &fakeRepo{}
	m := NewMachine(surface, repo)

	point := model.GeoPoint{Lat: 26.1445, Lng: 91.7362}

	if !m.StartCreate() {
		t.Fatal("StartCreate failed")
	}
	// Click arrives through the surface handler, as it would from a map
	surface.lastHandler(point)
	if m.State() != StateAdjustingRadius {
		t.Fatalf("expected adjusting-radius after click, got %s", m.State())
	}

	m.RadiusChanged(1000)
	m.TypeChanged(model.ZoneTypeRestricted)
	if !m.AdvanceToDetails() {
		t.Fatal("AdvanceToDetails failed")
	}
	m.SetName("Test Zone")

	created, err := m.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if created.Name != "Test Zone" || created.Type != model.ZoneTypeRestricted || created.Radius != 1000 {
		t.Errorf("created record does not match draft: %+v", created)
	}
	if created.Center != point {
		t.Errorf("expected center %+v, got %+v", point, created.Center)
	}
	if repo.lastInput == nil || repo.lastInput.Name != "Test Zone" {
		t.Errorf("repository did not receive the draft fields")
	}

	if m.State() != StateIdle {
		t.Errorf("expected idle after submit, got %s", m.State())
	}
	if m.Draft() != NewDraft() {
		t.Errorf("draft should be reset after submit")
	}
	if len(surface.shapes) != 0 {
		t.Errorf("preview shapes should be cleared after submit")
	}
}
