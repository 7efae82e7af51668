package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imgsrv/imageserver/internal/auth"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

// RespondDomainError maps core errors onto the transport: missing/invalid
// fields and type mismatches become 400s naming the field, absent rows
// become 404s, bad credentials 401s, anything else a 500.
func RespondDomainError(ctx *gin.Context, err error) {
	var missing *schema.MissingFieldError
	if errors.As(err, &missing) {
		RespondError(ctx, http.StatusBadRequest, "missing_field", err.Error(), gin.H{"field": missing.Field})
		return
	}

	var mismatch *schema.TypeMismatchError
	if errors.As(err, &mismatch) {
		RespondError(ctx, http.StatusBadRequest, "type_mismatch", err.Error(), gin.H{"field": mismatch.Field})
		return
	}

	var invalid *schema.ValidationError
	if errors.As(err, &invalid) {
		RespondError(ctx, http.StatusBadRequest, "validation_error", err.Error(), gin.H{"field": invalid.Field})
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		RespondNotFound(ctx, "Record not found")
		return
	}

	if errors.Is(err, auth.ErrInvalidToken) {
		RespondUnAuthorized(ctx, "unauthorized", "Invalid or expired token")
		return
	}

	RespondInternal(ctx, "Something went wrong")
}
