package middleware

import (
	"net/http"
	"strings"

	apperrors "chatrelay-go/internal/errors"
	hcommon "chatrelay-go/internal/handlers/common"

	"github.com/gin-gonic/gin"
)

// UnifiedAuth checks a caller key taken from, in order:
//   - Authorization: Bearer <token>
//   - x-api-key: <token>
//   - x-goog-api-key: <token>
//   - ?key=<token>
//
// A nil validator disables authentication.
func UnifiedAuth(validate func(key string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validate == nil {
			c.Next()
			return
		}
		key := providedKey(c)
		if key == "" {
			respondUnauthorized(c, "API key not provided")
			return
		}
		if !validate(key) {
			respondUnauthorized(c, "Invalid API key")
			return
		}
		c.Set("api_key", key)
		c.Next()
	}
}

func providedKey(c *gin.Context) string {
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); auth != "" {
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			return strings.TrimSpace(auth[7:])
		}
		return auth
	}
	for _, h := range []string{"x-api-key", "x-goog-api-key"} {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(c.Query("key"))
}

func respondUnauthorized(c *gin.Context, message string) {
	hcommon.AbortWithAPIError(c, apperrors.New(
		http.StatusUnauthorized,
		"invalid_api_key",
		"invalid_request_error",
		message,
	))
}
