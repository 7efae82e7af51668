package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store"
)

// Store keeps rows in process memory behind a RW mutex. Used by tests and
// by dev mode when no database is configured.
type Store struct {
	mu    sync.RWMutex
	items map[schema.Kind]map[string]schema.Row
}

func New() *Store {
	return &Store{
		items: make(map[schema.Kind]map[string]schema.Row),
	}
}

func (s *Store) Get(ctx context.Context, kind schema.Kind, id string) (schema.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.items[kind][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *Store) List(ctx context.Context, kind schema.Kind) ([]schema.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schema.Row, 0, len(s.items[kind]))
	for _, row := range s.items[kind] {
		out = append(out, row.Clone())
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, kind schema.Kind, row schema.Row) (string, error) {
	id := uuid.NewString()

	stored := row.Clone()
	stored[schema.IDField] = id

	s.mu.Lock()
	if s.items[kind] == nil {
		s.items[kind] = make(map[string]schema.Row)
	}
	s.items[kind][id] = stored
	s.mu.Unlock()

	return id, nil
}

func (s *Store) Update(ctx context.Context, kind schema.Kind, id string, row schema.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[kind][id]; !ok {
		return store.ErrNotFound
	}

	stored := row.Clone()
	stored[schema.IDField] = id
	s.items[kind][id] = stored
	return nil
}

func (s *Store) Delete(ctx context.Context, kind schema.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[kind][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items[kind], id)

	// Referential policy: removing a user takes its posts with it, same as
	// the FK cascade in the postgres store.
	if kind == schema.KindUser {
		for postID, row := range s.items[schema.KindPost] {
			if owner, _ := row["userId"].(string); owner == id {
				delete(s.items[schema.KindPost], postID)
			}
		}
	}

	return nil
}

func (s *Store) Find(ctx context.Context, kind schema.Kind, field string, value any) (schema.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.items[kind] {
		if row[field] == value {
			return row.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Migrate(ctx context.Context, kind schema.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items[kind] == nil {
		s.items[kind] = make(map[string]schema.Row)
	}
	return nil
}
