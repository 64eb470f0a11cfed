package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		db      Pinger
		dbState string
		status  string
	}{
		{"no db", nil, "disabled", "healthy"},
		{"db up", pingFunc(func(context.Context) error { return nil }), "up", "healthy"},
		{"db down", pingFunc(func(context.Context) error { return errors.New("refused") }), "down", "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler("reloop-backend", "1.2.3", tc.db).RegisterRoutes(r)

			for _, path := range []string{"/health", "/healthz"} {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				require.Equal(t, http.StatusOK, w.Code)

				var body HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tc.dbState, body.DB)
				assert.Equal(t, tc.status, body.Status)
				assert.Equal(t, "1.2.3", body.Version)
			}
		})
	}
}
