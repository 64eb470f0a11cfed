// Package respond writes the JSON envelopes shared by every API handler.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

// Fail aborts the request with {success:false, message}.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// Validation reports every violated field.
func Validation(c *gin.Context, verr *validation.Error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation error",
		"errors":  verr.Fields,
	})
}

// Internal logs err and answers with a generic 500. The cause never reaches
// the client.
func Internal(c *gin.Context, err error) {
	logging.FromContext(c.Request.Context()).Error("request failed",
		"method", c.Request.Method,
		"route", c.FullPath(),
		"error", err,
	)
	Fail(c, http.StatusInternalServerError, "Internal server error")
}

// BadJSON is the answer to a body that does not decode.
func BadJSON(c *gin.Context) {
	Fail(c, http.StatusBadRequest, "Invalid JSON body")
}
