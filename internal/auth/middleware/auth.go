package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reloop-app/reloop-backend/internal/api/http/respond"
	"github.com/reloop-app/reloop-backend/internal/auth"
	"github.com/reloop-app/reloop-backend/internal/logging"
)

// RequireAuth validates the bearer token and stores the caller's identity in
// the gin context.
func RequireAuth(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			respond.Fail(c, http.StatusUnauthorized, "missing authorization token")
			return
		}

		id, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			logging.FromContext(c.Request.Context()).Debug("token rejected", "error", err)
			respond.Fail(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(auth.CtxSubject, id.Subject)
		if id.Email != "" {
			c.Set(auth.CtxEmail, id.Email)
		}

		ctx := logging.WithLogger(c.Request.Context(), logging.FromContext(c.Request.Context()).With("subject", id.Subject))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
