package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"graminsetu/internal/land/models"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/sentinel"
)

// InMemoryLandStore keeps parcels in a process-local map.
type InMemoryLandStore struct {
	mu    sync.RWMutex
	lands map[id.LandID]*models.LandParcel
}

// NewInMemoryLandStore constructs an empty in-memory land store.
func NewInMemoryLandStore() *InMemoryLandStore {
	return &InMemoryLandStore{lands: make(map[id.LandID]*models.LandParcel)}
}

func (s *InMemoryLandStore) Create(_ context.Context, land *models.LandParcel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := *land
	s.lands[l.ID] = &l
	return nil
}

func (s *InMemoryLandStore) FindByID(_ context.Context, landID id.LandID) (*models.LandParcel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.lands[landID]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, fmt.Errorf("land parcel not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryLandStore) ListByFarmer(_ context.Context, farmerID id.UserID) ([]*models.LandParcel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LandParcel
	for _, l := range s.lands {
		if l.FarmerID == farmerID {
			copied := *l
			out = append(out, &copied)
		}
	}
	sortLands(out)
	return out, nil
}

func (s *InMemoryLandStore) ListAll(_ context.Context) ([]*models.LandParcel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.LandParcel, 0, len(s.lands))
	for _, l := range s.lands {
		copied := *l
		out = append(out, &copied)
	}
	sortLands(out)
	return out, nil
}

func (s *InMemoryLandStore) SetStatus(_ context.Context, landID id.LandID, status models.LandStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lands[landID]
	if !ok {
		return fmt.Errorf("land parcel not found: %w", sentinel.ErrNotFound)
	}
	l.Status = status
	l.UpdatedAt = updatedAt
	return nil
}

func (s *InMemoryLandStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lands), nil
}

// sortLands fixes iteration order so listings are stable across calls.
func sortLands(lands []*models.LandParcel) {
	sort.Slice(lands, func(i, j int) bool {
		if !lands[i].CreatedAt.Equal(lands[j].CreatedAt) {
			return lands[i].CreatedAt.Before(lands[j].CreatedAt)
		}
		return lands[i].ID.String() < lands[j].ID.String()
	})
}

// InMemorySoilTestStore keeps soil readings in a process-local map.
type InMemorySoilTestStore struct {
	mu    sync.RWMutex
	tests map[id.SoilTestID]*models.SoilTest
}

// NewInMemorySoilTestStore constructs an empty in-memory soil test store.
func NewInMemorySoilTestStore() *InMemorySoilTestStore {
	return &InMemorySoilTestStore{tests: make(map[id.SoilTestID]*models.SoilTest)}
}

func (s *InMemorySoilTestStore) Create(_ context.Context, test *models.SoilTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *test
	s.tests[t.ID] = &t
	return nil
}

func (s *InMemorySoilTestStore) ListByLands(_ context.Context, landIDs []id.LandID) ([]*models.SoilTest, error) {
	wanted := make(map[id.LandID]struct{}, len(landIDs))
	for _, lid := range landIDs {
		wanted[lid] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SoilTest
	for _, t := range s.tests {
		if _, ok := wanted[t.LandID]; ok {
			copied := *t
			out = append(out, &copied)
		}
	}
	sortTests(out)
	return out, nil
}

func (s *InMemorySoilTestStore) ListPending(_ context.Context) ([]*models.SoilTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SoilTest
	for _, t := range s.tests {
		if !t.Approved {
			copied := *t
			out = append(out, &copied)
		}
	}
	sortTests(out)
	return out, nil
}

func (s *InMemorySoilTestStore) Approve(_ context.Context, testID id.SoilTestID) (*models.SoilTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[testID]
	if !ok {
		return nil, fmt.Errorf("soil test not found: %w", sentinel.ErrNotFound)
	}
	t.Approved = true
	copied := *t
	return &copied, nil
}

func (s *InMemorySoilTestStore) CountPending(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, t := range s.tests {
		if !t.Approved {
			count++
		}
	}
	return count, nil
}

func sortTests(tests []*models.SoilTest) {
	sort.Slice(tests, func(i, j int) bool {
		if !tests[i].CreatedAt.Equal(tests[j].CreatedAt) {
			return tests[i].CreatedAt.Before(tests[j].CreatedAt)
		}
		return tests[i].ID.String() < tests[j].ID.String()
	})
}

// InMemoryPlanStore keeps plans in a process-local slice per parcel.
type InMemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[id.LandID][]*models.FertilizerPlan
}

// NewInMemoryPlanStore constructs an empty in-memory plan store.
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{plans: make(map[id.LandID][]*models.FertilizerPlan)}
}

func (s *InMemoryPlanStore) Create(_ context.Context, plan *models.FertilizerPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *plan
	s.plans[p.LandID] = append(s.plans[p.LandID], &p)
	return nil
}

func (s *InMemoryPlanStore) ListByLand(_ context.Context, landID id.LandID) ([]*models.FertilizerPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.FertilizerPlan, 0, len(s.plans[landID]))
	for _, p := range s.plans[landID] {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}
