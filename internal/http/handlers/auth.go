package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imgsrv/imageserver/internal/domain/user"
	"github.com/imgsrv/imageserver/internal/http/middlewares"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/security"
	"github.com/imgsrv/imageserver/internal/store"
)

// TokenIssuer is the slice of the auth service the handlers need.
type TokenIssuer interface {
	IssueToken(ctx context.Context, userID string) (string, error)
	RevokeAll(ctx context.Context, userID string) error
}

// AccessTokenSigner mints the short-lived JWT returned next to the opaque
// session token.
type AccessTokenSigner interface {
	GenerateAccessToken(userID, email string) (string, error)
}

type AuthHandler struct {
	store    store.Store
	tokens   TokenIssuer
	signer   AccessTokenSigner
	verifier security.Verifier
}

func NewAuthHandler(s store.Store, tokens TokenIssuer, signer AccessTokenSigner, verifier security.Verifier) *AuthHandler {
	return &AuthHandler{
		store:    s,
		tokens:   tokens,
		signer:   signer,
		verifier: verifier,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	ImageURL string `json:"imageUrl" binding:"omitempty,url"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	// same construction path as the generic resource controller
	u, err := user.New(schema.Wire{
		"name":     req.Name,
		"email":    req.Email,
		"imageUrl": req.ImageURL,
	})
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if _, err := h.store.Find(cctx, schema.KindUser, "email", req.Email); err == nil {
		RespondConflict(ctx, "email_taken", "Email is already in use.")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := h.verifier.Hash(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}
	u.PasswordHash = hash

	id, err := h.store.Insert(cctx, schema.KindUser, u.ToRow())
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}
	u.SetID(id)

	h.respondWithTokens(ctx, cctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	row, err := h.store.Find(cctx, schema.KindUser, "email", req.Email)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	u, err := user.Load(row)
	if err != nil {
		RespondInternal(ctx, "Could not log in")
		return
	}

	if u.PasswordHash == "" || h.verifier.Check(u.PasswordHash, req.Password) != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	h.respondWithTokens(ctx, cctx, http.StatusOK, u)
}

// Logout revokes every outstanding opaque token of the calling user.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.tokens.RevokeAll(cctx, userID); err != nil {
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	row, err := h.store.Get(cctx, schema.KindUser, userID)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	u, err := user.Load(row)
	if err != nil {
		RespondInternal(ctx, "Could not read user")
		return
	}

	ctx.JSON(http.StatusOK, u.ToWire())
}

func (h *AuthHandler) respondWithTokens(ctx *gin.Context, cctx context.Context, status int, u *user.User) {
	accessToken, err := h.signer.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	sessionToken, err := h.tokens.IssueToken(cctx, u.ID)
	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(status, gin.H{
		"accessToken": accessToken,
		"token":       sessionToken,
		"user":        u.ToWire(),
	})
}
