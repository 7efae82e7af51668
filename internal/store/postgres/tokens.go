package postgres

import (
	"context"
	"errors"

	"github.com/imgsrv/imageserver/internal/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTokenNotFound = errors.New("token not found")

type TokensRepo struct {
	pool *pgxpool.Pool
}

func NewTokensRepo(pool *pgxpool.Pool) *TokensRepo {
	return &TokensRepo{pool: pool}
}

func (r *TokensRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tokens (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES "users"("id") ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (r *TokensRepo) Create(ctx context.Context, rec auth.TokenRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tokens (id, user_id, token_hash, expires_at, revoked_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		`,
		rec.ID, rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.RevokedAt, rec.CreatedAt,
	)
	return err
}

func (r *TokensRepo) GetByHash(ctx context.Context, tokenHash string) (auth.TokenRecord, error) {
	var rec auth.TokenRecord

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.ExpiresAt,
		&rec.RevokedAt,
		&rec.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.TokenRecord{}, ErrTokenNotFound
		}
		return auth.TokenRecord{}, err
	}

	return rec, nil
}

func (r *TokensRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tokens
		SET revoked_at = NOW()
		WHERE id = $1
	`, id)

	return err
}

func (r *TokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)

	return err
}
