package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/shared/server/respond"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

const adminKey = "isAdmin"

// AdminToken guards a route group with a shared secret taken from the X-Admin-Token
// header or the token query parameter. An empty configured token rejects every request.
func AdminToken(expected string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(expected))
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		got := strings.TrimSpace(c.GetHeader(AdminTokenHeader))
		if got == "" {
			got = strings.TrimSpace(c.Query("token"))
		}
		if len(want) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin token", nil)
			return
		}

		c.Set(adminKey, true)
		c.Next()
	}
}

// IsAdmin reports whether AdminToken accepted the request.
func IsAdmin(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(adminKey)
}
