package geofence

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"tourguard/internal/authoring"
	"tourguard/internal/model"
	"tourguard/internal/service/storage"
	"tourguard/internal/util"
)

// reloadPageSize is the page size used when mirroring the repository.
const reloadPageSize = 100

// containmentSegments is the vertex count for the cached containment rings.
const containmentSegments = 64

// GeofenceSpatial represents a geofence with its spatial information for
// R-tree indexing
type GeofenceSpatial struct {
	ID          string
	Polygon     *orb.Polygon
	BoundingBox *orb.Bound
	Fence       *model.Geofence
}

// Bounds implements the rtreego.Spatial interface
// Returns the bounding rectangle of the geofence for R-tree indexing
func (g *GeofenceSpatial) Bounds() rtreego.Rect {
	minX, minY := g.BoundingBox.Min[0], g.BoundingBox.Min[1]
	maxX, maxY := g.BoundingBox.Max[0], g.BoundingBox.Max[1]

	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)

	return rect
}

// The service itself satisfies the authoring repository contract, so an
// authoring machine can submit straight through it and get the
// create-then-reload semantics in one step.
var _ authoring.Repository = (*Service)(nil)

// Service owns the in-memory geofence collection mirrored from the
// repository, plus a spatial index for containment queries. The collection
// is refreshed wholesale after every mutation; there is no incremental
// patching.
type Service struct {
	repo         authoring.Repository
	storage      storage.Storage[string, *model.Geofence]
	spatialIndex *rtreego.Rtree
	indexMutex   sync.RWMutex
	initialized  bool
	initMutex    sync.RWMutex
}

// NewService creates a service mirroring the given repository.
func NewService(repo authoring.Repository) *Service {
	return &Service{
		repo:         repo,
		storage:      storage.NewMemoryStorage[string, *model.Geofence](),
		spatialIndex: rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
	}
}

// Init performs the first collection load.
func (s *Service) Init(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing geofence service...")
	startTime := time.Now()

	if err := s.Reload(ctx); err != nil {
		return fmt.Errorf("initial geofence load: %w", err)
	}

	log.Printf("Geofence service initialized: %d fences in %v", s.storage.Count(), time.Since(startTime))
	s.initialized = true
	return nil
}

// Reload replaces the in-memory collection with the repository contents and
// rebuilds the spatial index.
func (s *Service) Reload(ctx context.Context) error {
	var fences []*model.Geofence
	for page := 1; ; page++ {
		batch, err := s.repo.List(ctx, page, reloadPageSize)
		if err != nil {
			return fmt.Errorf("list geofences page %d: %w", page, err)
		}
		fences = append(fences, batch...)
		if len(batch) < reloadPageSize {
			break
		}
	}

	s.storage.Clear()
	for _, f := range fences {
		s.ensureGeometry(f)
		s.storage.Set(f.ID, f)
	}

	s.rebuildSpatialIndex()
	return nil
}

// Create validates the input, persists through the repository and reloads
// the collection. A failed reload does not undo the create; the stale
// collection is retained until the next successful reload.
func (s *Service) Create(ctx context.Context, input *model.GeofenceInput) (*model.Geofence, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.Reload(ctx); err != nil {
		log.Printf("Reload after create failed, keeping stale collection: %v", err)
	}
	return created, nil
}

// Update applies a partial update and reloads.
func (s *Service) Update(ctx context.Context, id string, update *model.GeofenceUpdate) (*model.Geofence, error) {
	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if err := s.Reload(ctx); err != nil {
		log.Printf("Reload after update failed, keeping stale collection: %v", err)
	}
	return updated, nil
}

// Delete removes a geofence and reloads.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.Reload(ctx); err != nil {
		log.Printf("Reload after delete failed, keeping stale collection: %v", err)
	}
	return nil
}

// Toggle flips the active flag of a persisted geofence.
func (s *Service) Toggle(ctx context.Context, id string) (*model.Geofence, error) {
	current, ok := s.storage.Get(id)
	if !ok {
		return nil, fmt.Errorf("geofence %s: %w", id, model.ErrNotFound)
	}

	active := !current.IsActive
	return s.Update(ctx, id, &model.GeofenceUpdate{IsActive: &active})
}

// List returns a page of the in-memory collection ordered by creation time.
func (s *Service) List(ctx context.Context, page, limit int) ([]*model.Geofence, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	fences := s.All()
	start := (page - 1) * limit
	if start > len(fences) {
		start = len(fences)
	}
	end := start + limit
	if end > len(fences) {
		end = len(fences)
	}
	return fences[start:end], nil
}

// Get returns a geofence from the in-memory collection.
func (s *Service) Get(id string) (*model.Geofence, bool) {
	return s.storage.Get(id)
}

// All returns the collection ordered by creation time.
func (s *Service) All() []*model.Geofence {
	fences := s.storage.GetAllValues()
	sort.Slice(fences, func(i, j int) bool {
		if fences[i].CreatedAt.Equal(fences[j].CreatedAt) {
			return fences[i].ID < fences[j].ID
		}
		return fences[i].CreatedAt.Before(fences[j].CreatedAt)
	})
	return fences
}

// Count returns the collection size.
func (s *Service) Count() int {
	return s.storage.Count()
}

// Stats tallies the current collection.
func (s *Service) Stats() Stats {
	return ComputeStats(s.storage.GetAllValues())
}

// ContainingPoint returns the active geofences whose circle contains the
// given coordinate.
func (s *Service) ContainingPoint(lat, lng float64) []*model.Geofence {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	point := orb.Point{lng, lat}

	// Small search rectangle around the point for the initial R-tree filter
	searchRect, err := rtreego.NewRect(
		rtreego.Point{lng, lat},
		[]float64{0.0001, 0.0001},
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	spatialResults := s.spatialIndex.SearchIntersect(searchRect)
	if len(spatialResults) == 0 {
		return nil
	}

	var result []*model.Geofence
	for _, item := range spatialResults {
		spatial := item.(*GeofenceSpatial)
		if !spatial.Fence.IsActive {
			continue
		}
		// Precise point-in-polygon check after the bounding-box filter
		if util.PointInPolygon(*spatial.Polygon, point) {
			result = append(result, spatial.Fence)
		}
	}

	return result
}

// ensureGeometry builds the cached containment ring for a fence.
func (s *Service) ensureGeometry(f *model.Geofence) {
	if f.Polygon != nil && f.BoundingBox != nil {
		return
	}

	ring := util.GeodesicCircle(f.Center.Lat, f.Center.Lng, f.Radius, containmentSegments)
	polygon := orb.Polygon{ring}
	bound := polygon.Bound()
	f.Polygon = &polygon
	f.BoundingBox = &bound
}

// rebuildSpatialIndex rebuilds the spatial index for efficient searching
func (s *Service) rebuildSpatialIndex() {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	s.spatialIndex = rtreego.NewTree(2, 25, 50)

	s.storage.ForEach(func(id string, fence *model.Geofence) bool {
		s.ensureGeometry(fence)
		s.spatialIndex.Insert(&GeofenceSpatial{
			ID:          fence.ID,
			Polygon:     fence.Polygon,
			BoundingBox: fence.BoundingBox,
			Fence:       fence,
		})
		return true
	})
}
