package db

import (
	"context"
	"errors"

	"github.com/imgsrv/imageserver/internal/config"
	"github.com/imgsrv/imageserver/internal/domain/user"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/security"
	"github.com/imgsrv/imageserver/internal/store"
)

// EnsureSeedUser creates the configured initial account if no user with
// that email exists yet. A no-op when seeding is not configured.
func EnsureSeedUser(ctx context.Context, s store.Store, verifier security.Verifier, cfg config.Config) error {
	if cfg.SeedEmail == "" || cfg.SeedPassword == "" {
		return nil
	}

	_, err := s.Find(ctx, schema.KindUser, "email", cfg.SeedEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := verifier.Hash(cfg.SeedPassword)
	if err != nil {
		return err
	}

	u := &user.User{
		Name:         cfg.SeedName,
		Email:        cfg.SeedEmail,
		PasswordHash: hash,
	}

	_, err = s.Insert(ctx, schema.KindUser, u.ToRow())
	return err
}
