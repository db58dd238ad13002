package reviews

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"reviewme/internal/feed"
	"reviewme/pkg/models"
)

type memStore struct {
	mu      sync.Mutex
	byID    map[string]models.Review
	listErr error
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]models.Review)}
}

func (m *memStore) Create(ctx context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[r.ID] = *r
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) List(ctx context.Context, q ListQuery) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	q.Normalize()

	term := strings.ToLower(q.SearchTerm)
	var out []models.Review
	for _, r := range m.byID {
		switch {
		case q.UserID != "" && r.UserID != q.UserID,
			q.Title != "" && r.Title != q.Title,
			q.Author != "" && r.Author != q.Author,
			q.ReviewID != "" && r.ID != q.ReviewID:
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(r.Title), term) && !strings.Contains(strings.ToLower(r.Author), term) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !q.SortAsc {
			a, b = b, a
		}
		if c := compareBy(q.SortField, a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	if q.StartIndex >= len(out) {
		return []models.Review{}, nil
	}
	out = out[q.StartIndex:]
	if len(out) > q.PageSize {
		out = out[:q.PageSize]
	}
	return out, nil
}

func compareBy(field string, a, b models.Review) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "author":
		return strings.Compare(a.Author, b.Author)
	case "rating":
		return a.Rating - b.Rating
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (m *memStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.byID {
		if userID == "" || r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Update(ctx context.Context, id string, f Fields, updatedAt time.Time) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	f.Apply(&r)
	r.UpdatedAt = updatedAt
	m.byID[id] = r
	return &r, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []feed.ReviewEvent
}

func (l *eventLog) Publish(ev feed.ReviewEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

// steppingClock advances one second per call so timestamps are distinct.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestService(store Store) (*Service, *eventLog) {
	events := &eventLog{}
	svc := NewService(store, events)
	svc.now = steppingClock()
	return svc, events
}

var dune = Fields{Title: "Dune", Author: "Herbert", Rating: 5, ReviewText: "Great"}
