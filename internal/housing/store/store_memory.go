package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"graminsetu/internal/housing/models"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/sentinel"
)

// InMemoryApplicationStore keeps applications in a process-local map.
type InMemoryApplicationStore struct {
	mu     sync.RWMutex
	apps   map[id.HousingApplicationID]*models.Application
	labels map[string]struct{}
}

// NewInMemoryApplicationStore constructs an empty in-memory application
// store.
func NewInMemoryApplicationStore() *InMemoryApplicationStore {
	return &InMemoryApplicationStore{
		apps:   make(map[id.HousingApplicationID]*models.Application),
		labels: make(map[string]struct{}),
	}
}

func (s *InMemoryApplicationStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.labels[app.ApplicationID]; taken {
		return fmt.Errorf("application id %s already taken: %w", app.ApplicationID, sentinel.ErrConflict)
	}
	a := *app
	s.apps[a.ID] = &a
	s.labels[a.ApplicationID] = struct{}{}
	return nil
}

func (s *InMemoryApplicationStore) FindByID(_ context.Context, appID id.HousingApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.apps[appID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, fmt.Errorf("application not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryApplicationStore) ListByApplicant(_ context.Context, applicantID id.UserID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, a := range s.apps {
		if a.ApplicantID == applicantID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryApplicationStore) ListAll(_ context.Context, status models.Status) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, a := range s.apps {
		if status != "" && a.Status != status {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryApplicationStore) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; !ok {
		return fmt.Errorf("application not found: %w", sentinel.ErrNotFound)
	}
	a := *app
	s.apps[a.ID] = &a
	return nil
}

func sortNewestFirst(apps []*models.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID.String() < apps[j].ID.String()
	})
}

// InMemorySequence is a mutex-guarded counter for single-process runs.
type InMemorySequence struct {
	mu    sync.Mutex
	value int64
}

// NewInMemorySequence constructs a sequence starting at zero.
func NewInMemorySequence() *InMemorySequence {
	return &InMemorySequence{}
}

func (s *InMemorySequence) Next(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value++
	return s.value, nil
}
