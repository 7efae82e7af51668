package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imgsrv/imageserver/internal/auth"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store/memory"
)

func newService(t *testing.T, tokenTTL time.Duration) (*auth.Service, string) {
	t.Helper()

	users := memory.New()
	tokens := memory.NewTokenStore()
	jwt := auth.NewManager("test-secret-do-not-use", 15*time.Minute)

	userID, err := users.Insert(context.Background(), schema.KindUser, schema.Row{
		"name": "Ann", "email": "ann@example.com", "password": "hash",
	})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	return auth.NewService(tokens, users, jwt, tokenTTL), userID
}

func TestIssueAndAuthenticate(t *testing.T) {
	svc, userID := newService(t, time.Hour)
	ctx := context.Background()

	raw, err := svc.IssueToken(ctx, userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(raw))
	}

	u, err := svc.Authenticate(ctx, raw)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.ID != userID || u.Email != "ann@example.com" {
		t.Fatalf("resolved wrong user: %+v", u)
	}
}

func TestAuthenticateRejectsUnknown(t *testing.T) {
	svc, _ := newService(t, time.Hour)

	_, err := svc.Authenticate(context.Background(), "deadbeef")
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	svc, userID := newService(t, -time.Minute)
	ctx := context.Background()

	raw, err := svc.IssueToken(ctx, userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := svc.Authenticate(ctx, raw); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken for expired token", err)
	}
}

func TestRevokeAll(t *testing.T) {
	svc, userID := newService(t, time.Hour)
	ctx := context.Background()

	first, _ := svc.IssueToken(ctx, userID)
	second, _ := svc.IssueToken(ctx, userID)

	if err := svc.RevokeAll(ctx, userID); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}

	for _, raw := range []string{first, second} {
		if _, err := svc.Authenticate(ctx, raw); !errors.Is(err, auth.ErrInvalidToken) {
			t.Fatalf("revoked token still valid, err = %v", err)
		}
	}
}

func TestJWTRoundTrip(t *testing.T) {
	jwt := auth.NewManager("test-secret-do-not-use", time.Minute)

	signed, err := jwt.GenerateAccessToken("u1", "ann@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := jwt.VerifyAccessToken(signed)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "ann@example.com" {
		t.Fatalf("claims = %+v", claims)
	}

	other := auth.NewManager("a-different-secret", time.Minute)
	if _, err := other.VerifyAccessToken(signed); err == nil {
		t.Fatal("token verified under the wrong secret")
	}
}

func TestTokensAreIndependent(t *testing.T) {
	svc, userID := newService(t, time.Hour)
	ctx := context.Background()

	a, _ := svc.IssueToken(ctx, userID)
	b, _ := svc.IssueToken(ctx, userID)
	if a == b {
		t.Fatal("two issued tokens are identical")
	}
}
