package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloop-app/reloop-backend/internal/auth"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

type fakeUsers struct {
	err     error
	subject string
	userID  string
	req     *users.AddDetailsRequest
}

func (f *fakeUsers) AddDetails(_ context.Context, externalID string, req *users.AddDetailsRequest) (*users.Details, error) {
	f.subject, f.req = externalID, req
	if f.err != nil {
		return nil, f.err
	}
	return &users.Details{UserID: "user-ann", Role: req.Role, UserType: req.UserType}, nil
}

func (f *fakeUsers) PublicProfile(_ context.Context, userID string) (*users.PublicProfile, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &users.PublicProfile{ID: userID, Name: "Ann", MemberSince: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func newRouter(svc UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	requireAuth := func(c *gin.Context) {
		c.Set(auth.CtxSubject, "ext-ann")
		c.Next()
	}
	pass := func(c *gin.Context) { c.Next() }

	h := New(svc)
	h.RegisterAccount(r.Group("/api/auth"), requireAuth)
	h.RegisterDirectory(r.Group("/api/dashboard"), pass)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddDetails(t *testing.T) {
	svc := &fakeUsers{}
	w := do(newRouter(svc), http.MethodPost, "/api/auth/add-details", `{"role":"producer","userType":"individual"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "User details added successfully",
		"data": {"userId": "user-ann", "role": "producer", "userType": "individual", "updatedAt": "0001-01-01T00:00:00Z"}
	}`, w.Body.String())
	assert.Equal(t, "ext-ann", svc.subject)
	assert.Equal(t, users.RoleProducer, svc.req.Role)
}

func TestAddDetails_MalformedBody(t *testing.T) {
	svc := &fakeUsers{}
	w := do(newRouter(svc), http.MethodPost, "/api/auth/add-details", `{"role":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.req)
}

func TestAddDetails_ValidationBody(t *testing.T) {
	verr := &validation.Error{}
	verr.Add("organizationType", "organizationType is required when userType is organization")

	w := do(newRouter(&fakeUsers{err: verr}), http.MethodPost, "/api/auth/add-details", `{"role":"producer","userType":"organization"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{
		"success": false,
		"message": "Validation error",
		"errors": [{"path": "organizationType", "message": "organizationType is required when userType is organization"}]
	}`, w.Body.String())
}

func TestGetUserDetails(t *testing.T) {
	svc := &fakeUsers{}
	w := do(newRouter(svc), http.MethodGet, "/api/dashboard/get-user-details?userId=u-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"u-1","name":"Ann","memberSince":"2024-03-01T00:00:00Z"}}`, w.Body.String())
	assert.Equal(t, "u-1", svc.userID)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{users.ErrInvalidUserID, http.StatusBadRequest},
		{users.ErrUserNotFound, http.StatusNotFound},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := do(newRouter(&fakeUsers{err: tc.err}), http.MethodGet, "/api/dashboard/get-user-details", "")
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
