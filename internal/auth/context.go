package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CtxSubject holds the identity-provider user id of the caller.
	CtxSubject = "auth_subject"
	CtxEmail   = "auth_email"
)

// Subject returns the caller's identity-provider user id, set by RequireAuth.
func Subject(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxSubject))
}
