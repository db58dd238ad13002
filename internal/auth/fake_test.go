package auth

import (
	"context"
	"sync"

	"reviewme/pkg/models"
)

type memUserStore struct {
	mu      sync.Mutex
	byID    map[string]models.User
	getErr  error
	created int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[string]models.User)}
}

func (m *memUserStore) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := normalizeEmail(u.Email)
	for _, existing := range m.byID {
		if existing.Email == email {
			return ErrDuplicateEmail
		}
	}
	cp := *u
	cp.Email = email
	m.byID[u.ID] = cp
	m.created++
	return nil
}

func (m *memUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	email = normalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUserStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// racingStore hides existing users from GetByEmail so Create is the first
// place a duplicate shows up.
type racingStore struct {
	*memUserStore
}

func (r racingStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}
