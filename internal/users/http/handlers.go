package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reloop-app/reloop-backend/internal/api/http/respond"
	"github.com/reloop-app/reloop-backend/internal/auth"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

type UserService interface {
	AddDetails(ctx context.Context, externalID string, req *users.AddDetailsRequest) (*users.Details, error)
	PublicProfile(ctx context.Context, userID string) (*users.PublicProfile, error)
}

type Handler struct {
	svc UserService
}

func New(svc UserService) *Handler {
	return &Handler{svc: svc}
}

// RegisterAccount mounts the routes a signed-in user calls on their own account.
func (h *Handler) RegisterAccount(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/add-details", requireAuth, h.AddDetails)
}

// RegisterDirectory mounts the public user lookups.
func (h *Handler) RegisterDirectory(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	rg.GET("/get-user-details", limit, h.GetUserDetails)
}

func (h *Handler) AddDetails(c *gin.Context) {
	var req users.AddDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadJSON(c)
		return
	}

	d, err := h.svc.AddDetails(c.Request.Context(), auth.Subject(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User details added successfully", "data": d})
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	p, err := h.svc.PublicProfile(c.Request.Context(), c.Query("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

func fail(c *gin.Context, err error) {
	if verr, ok := validation.As(err); ok {
		respond.Validation(c, verr)
		return
	}

	switch {
	case errors.Is(err, users.ErrInvalidUserID):
		respond.Fail(c, http.StatusBadRequest, "Invalid or missing user ID")
	case errors.Is(err, users.ErrUserNotFound):
		respond.Fail(c, http.StatusNotFound, "User not found")
	default:
		respond.Internal(c, err)
	}
}
