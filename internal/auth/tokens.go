package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/imgsrv/imageserver/internal/domain/user"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenRecord is one issued opaque bearer token, tied to exactly one user
// at issuance. Only the hash of the raw value is persisted.
type TokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

type TokenStore interface {
	Create(ctx context.Context, rec TokenRecord) error
	GetByHash(ctx context.Context, tokenHash string) (TokenRecord, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Service issues bearer tokens and resolves them back to users. Two forms
// are accepted: short-lived HS256 JWTs (verified locally) and opaque
// session tokens (looked up against the token store). Opaque tokens carry
// an explicit TTL; expiry is checked at lookup time.
type Service struct {
	tokens   TokenStore
	users    store.Store
	jwt      *Manager
	tokenTTL time.Duration
}

func NewService(tokens TokenStore, users store.Store, jwt *Manager, tokenTTL time.Duration) *Service {
	return &Service{
		tokens:   tokens,
		users:    users,
		jwt:      jwt,
		tokenTTL: tokenTTL,
	}
}

// IssueToken mints a fresh opaque token for the user and persists its hash.
// The raw value is returned exactly once.
func (s *Service) IssueToken(ctx context.Context, userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(b)

	now := time.Now().UTC()
	rec := TokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: s.jwt.HashToken(raw),
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}

	if err := s.tokens.Create(ctx, rec); err != nil {
		return "", err
	}
	return raw, nil
}

// Authenticate resolves a presented bearer value to its user. JWTs are
// tried first so the common path needs no store round trip.
func (s *Service) Authenticate(ctx context.Context, raw string) (*user.User, error) {
	if claims, err := s.jwt.VerifyAccessToken(raw); err == nil {
		return s.loadUser(ctx, claims.UserID)
	}

	rec, err := s.tokens.GetByHash(ctx, s.jwt.HashToken(raw))
	if err != nil {
		return nil, ErrInvalidToken
	}

	if rec.RevokedAt != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().UTC().After(rec.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	return s.loadUser(ctx, rec.UserID)
}

// RevokeAll invalidates every outstanding opaque token for a user. JWTs
// keep working until they expire, which is why the access TTL stays short.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *Service) loadUser(ctx context.Context, id string) (*user.User, error) {
	row, err := s.users.Get(ctx, schema.KindUser, id)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := user.Load(row)
	if err != nil {
		return nil, err
	}
	return u, nil
}
