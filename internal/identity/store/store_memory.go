package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"graminsetu/internal/identity/models"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/sentinel"
)

// InMemoryUserStore keeps accounts in process-local maps for tests and
// single-instance development.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
	byPhone map[string]id.UserID
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
		byPhone: make(map[string]id.UserID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}

	u := *user
	s.byID[u.ID] = &u
	s.byEmail[key] = u.ID
	if u.Phone != "" {
		s.byPhone[u.Phone] = u.ID
	}
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uid, ok := s.byEmail[emailKey(email)]; ok {
		copied := *s.byID[uid]
		return &copied, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uid, ok := s.byPhone[phone]; ok {
		copied := *s.byID[uid]
		return &copied, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) CountByRole(_ context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, u := range s.byID {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}
