package tourist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"tourguard/internal/model"
	redisclient "tourguard/internal/redis"
	"tourguard/internal/service/storage"
	"tourguard/internal/util"
)

const (
	// TouristRedisKey prefixes the per-tourist Redis keys.
	TouristRedisKey = "tourist"

	// alertBufferSize caps the in-memory alert history served to the
	// polling dashboard.
	alertBufferSize = 200

	// staleAfter marks tourists inactive when no ping arrived for this long.
	staleAfter = 10 * time.Minute
)

// Safety score model: start from a full score and subtract a penalty per
// active zone containing the tourist. Restricted zones weigh far more than
// warning zones; the score never drops below the floor.
const (
	safetyBase        = 100
	safetyFloor       = 10
	restrictedPenalty = 40
	warningPenalty    = 15
)

// ZoneLookup is the slice of the geofence service the roster needs.
type ZoneLookup interface {
	ContainingPoint(lat, lng float64) []*model.Geofence
}

// Service tracks the tourist roster: last-known locations, derived safety
// scores and the alerts raised when a tourist enters a warning or restricted
// zone. Locations are mirrored to Redis so a restart does not lose the
// roster.
type Service struct {
	storage storage.Storage[string, *model.Tourist]
	zones   ZoneLookup

	alertMutex  sync.RWMutex
	alerts      []*model.Alert
	insideZones map[string]map[string]bool // tourist id -> geofence ids currently inside
	insideMutex sync.Mutex

	initialized bool
	initMutex   sync.RWMutex
}

// NewService creates a roster service resolving zones through the given
// lookup.
func NewService(zones ZoneLookup) *Service {
	return &Service{
		storage:     storage.NewShardedMemoryStorage[string, *model.Tourist](8, nil),
		zones:       zones,
		insideZones: make(map[string]map[string]bool),
	}
}

// Init loads the last-known roster from Redis.
func (s *Service) Init(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing tourist service...")
	startTime := time.Now()

	tourists, err := s.loadAllTouristsFromRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tourists from Redis: %w", err)
	}
	for _, t := range tourists {
		s.storage.Set(t.ID, t)
	}
	s.storage.ClearDirty(keysOf(tourists))

	log.Printf("Tourist service initialized: %d tourists in %v", s.storage.Count(), time.Since(startTime))
	s.initialized = true
	return nil
}

// RecordLocation ingests a location ping: updates the roster entry, derives
// the safety score from the zones containing the point and raises alerts for
// newly entered warning/restricted zones.
func (s *Service) RecordLocation(ctx context.Context, id, name string, lat, lng float64) (*model.Tourist, error) {
	if id == "" {
		return nil, fmt.Errorf("tourist id must not be empty")
	}
	if !util.ValidCoordinate(lat, lng) {
		return nil, model.ErrInvalidCoordinate
	}

	t, exists := s.storage.Get(id)
	if !exists {
		t = &model.Tourist{ID: id, Name: name, SafetyScore: safetyBase}
	}
	if name != "" {
		t.Name = name
	}

	t.Lat = lat
	t.Lng = lng
	t.State = model.TouristStateActive
	t.LastSeen = time.Now()

	containing := s.zones.ContainingPoint(lat, lng)
	t.SafetyScore = scoreFor(containing)
	s.storage.Set(id, t)

	s.raiseEntryAlerts(t, containing)
	return t, nil
}

// scoreFor derives the safety score from the active zones containing the
// tourist.
func scoreFor(zones []*model.Geofence) int {
	score := safetyBase
	for _, z := range zones {
		switch z.Type {
		case model.ZoneTypeRestricted:
			score -= restrictedPenalty
		case model.ZoneTypeWarning:
			score -= warningPenalty
		}
	}
	if score < safetyFloor {
		score = safetyFloor
	}
	return score
}

// raiseEntryAlerts compares the containing zone set against the previous
// ping and records an alert for each newly entered warning/restricted zone.
func (s *Service) raiseEntryAlerts(t *model.Tourist, containing []*model.Geofence) {
	s.insideMutex.Lock()
	previous := s.insideZones[t.ID]
	current := make(map[string]bool, len(containing))
	for _, z := range containing {
		current[z.ID] = true
	}
	s.insideZones[t.ID] = current
	s.insideMutex.Unlock()

	for _, z := range containing {
		if previous[z.ID] {
			continue
		}
		if z.Type != model.ZoneTypeRestricted && z.Type != model.ZoneTypeWarning {
			continue
		}
		s.appendAlert(&model.Alert{
			ID:         util.ShortUUID(),
			TouristID:  t.ID,
			GeofenceID: z.ID,
			ZoneName:   z.Name,
			ZoneType:   z.Type,
			Event:      model.AlertZoneEntry,
			Location:   model.GeoPoint{Lat: t.Lat, Lng: t.Lng},
			Timestamp:  t.LastSeen,
		})
	}
}

func (s *Service) appendAlert(alert *model.Alert) {
	s.alertMutex.Lock()
	defer s.alertMutex.Unlock()

	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > alertBufferSize {
		s.alerts = s.alerts[len(s.alerts)-alertBufferSize:]
	}
}

// Alerts returns recorded alerts, newest first.
func (s *Service) Alerts() []*model.Alert {
	s.alertMutex.RLock()
	defer s.alertMutex.RUnlock()

	result := make([]*model.Alert, len(s.alerts))
	for i, a := range s.alerts {
		result[len(s.alerts)-1-i] = a
	}
	return result
}

// Roster returns the tourists ordered by last-seen time, newest first.
func (s *Service) Roster() []*model.Tourist {
	tourists := s.storage.GetAllValues()
	sort.Slice(tourists, func(i, j int) bool {
		if tourists[i].LastSeen.Equal(tourists[j].LastSeen) {
			return tourists[i].ID < tourists[j].ID
		}
		return tourists[i].LastSeen.After(tourists[j].LastSeen)
	})
	return tourists
}

// Get returns a roster entry.
func (s *Service) Get(id string) (*model.Tourist, bool) {
	return s.storage.Get(id)
}

// MarkStale flips tourists without a recent ping to inactive. Returns the
// number of tourists marked.
func (s *Service) MarkStale() int {
	cutoff := time.Now().Add(-staleAfter)
	marked := 0

	s.storage.ForEach(func(id string, t *model.Tourist) bool {
		if t.State == model.TouristStateActive && t.LastSeen.Before(cutoff) {
			t.State = model.TouristStateInactive
			s.storage.Set(id, t)
			marked++
		}
		return true
	})
	return marked
}

// SaveDirtyTouristsToRedis mirrors modified roster entries to Redis.
func (s *Service) SaveDirtyTouristsToRedis(ctx context.Context) error {
	dirty := s.storage.GetDirty()
	if len(dirty) == 0 {
		return nil
	}

	client := redisclient.GetClient()
	if client == nil {
		return nil
	}
	pipe := client.Pipeline()

	keys := make([]string, 0, len(dirty))
	for _, t := range dirty {
		data, err := json.Marshal(t.ToLightVersion())
		if err != nil {
			log.Printf("Failed to marshal tourist %s: %v", t.ID, err)
			continue
		}
		pipe.Set(ctx, fmt.Sprintf("%s:%s", TouristRedisKey, t.ID), data, 0)
		keys = append(keys, t.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save tourists to Redis: %w", err)
	}

	s.storage.ClearDirty(keys)
	log.Printf("Saved %d tourists to Redis", len(keys))
	return nil
}

// loadAllTouristsFromRedis scans the tourist keyspace and unmarshals every
// entry.
func (s *Service) loadAllTouristsFromRedis(ctx context.Context) ([]*model.Tourist, error) {
	client := redisclient.GetClient()
	if client == nil {
		return nil, nil
	}

	var cursor uint64
	var keys []string
	pattern := fmt.Sprintf("%s:*", TouristRedisKey)

	// Collect all tourist keys
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil, nil
	}

	jsonData, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var tourists []*model.Tourist
	for _, data := range jsonData {
		if data == nil {
			continue
		}

		jsonStr, ok := data.(string)
		if !ok || jsonStr == "" {
			continue
		}

		t := &model.Tourist{}
		if err := json.Unmarshal([]byte(jsonStr), t); err != nil {
			continue
		}
		tourists = append(tourists, t)
	}

	return tourists, nil
}

func keysOf(tourists []*model.Tourist) []string {
	keys := make([]string, len(tourists))
	for i, t := range tourists {
		keys[i] = t.ID
	}
	return keys
}
