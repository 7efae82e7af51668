package memory

import (
	"context"
	"sync"
	"time"

	"github.com/imgsrv/imageserver/internal/auth"
	"github.com/imgsrv/imageserver/internal/store"
)

// TokenStore keeps issued tokens in process memory. Dev-mode counterpart
// of the postgres tokens repo.
type TokenStore struct {
	mu     sync.RWMutex
	byHash map[string]auth.TokenRecord
}

func NewTokenStore() *TokenStore {
	return &TokenStore{byHash: make(map[string]auth.TokenRecord)}
}

func (s *TokenStore) Create(ctx context.Context, rec auth.TokenRecord) error {
	s.mu.Lock()
	s.byHash[rec.TokenHash] = rec
	s.mu.Unlock()
	return nil
}

func (s *TokenStore) GetByHash(ctx context.Context, tokenHash string) (auth.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byHash[tokenHash]
	if !ok {
		return auth.TokenRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *TokenStore) Revoke(ctx context.Context, id string) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, rec := range s.byHash {
		if rec.ID == id && rec.RevokedAt == nil {
			rec.RevokedAt = &now
			s.byHash[hash] = rec
		}
	}
	return nil
}

func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, rec := range s.byHash {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
			s.byHash[hash] = rec
		}
	}
	return nil
}
