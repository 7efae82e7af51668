package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httputil"

	"github.com/gin-gonic/gin"
)

// Diagnostic endpoints. Small, unauthenticated, handy for smoke tests.

func Hello(ctx *gin.Context) {
	digest := sha256.Sum256([]byte("world"))

	ctx.JSON(http.StatusOK, gin.H{
		"hello": hex.EncodeToString(digest[:]),
	})
}

func Plaintext(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Hello, world!")
}

// Info echoes a dump of the inbound request.
func Info(ctx *gin.Context) {
	dump, err := httputil.DumpRequest(ctx.Request, false)
	if err != nil {
		RespondInternal(ctx, "Could not describe request")
		return
	}

	ctx.String(http.StatusOK, string(dump))
}
