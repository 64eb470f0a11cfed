package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reloop-app/reloop-backend/internal/api/http/respond"
	"github.com/reloop-app/reloop-backend/internal/auth"
	"github.com/reloop-app/reloop-backend/internal/dashboard"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

type DashboardService interface {
	Profile(ctx context.Context, externalID string) (*users.User, error)
	Overview(ctx context.Context, externalID string) (*dashboard.Overview, error)
	ItemsListed(ctx context.Context, externalID string, p dashboard.Page) (*dashboard.ListingsPage, error)
	PickupRequests(ctx context.Context, externalID string, p dashboard.Page) ([]dashboard.PickupRequestView, error)
}

type Handler struct {
	svc DashboardService
}

func New(svc DashboardService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/get-dashboard-data", h.GetDashboardData)
	rg.GET("/get-items-listed", h.GetItemsListed)
	rg.GET("/get-pickup-requests", h.GetPickupRequests)
	rg.GET("/get-my-profile", h.GetMyProfile)
}

func (h *Handler) GetDashboardData(c *gin.Context) {
	data, err := h.svc.Overview(c.Request.Context(), auth.Subject(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *Handler) GetItemsListed(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	data, err := h.svc.ItemsListed(c.Request.Context(), auth.Subject(c), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *Handler) GetPickupRequests(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	data, err := h.svc.PickupRequests(c.Request.Context(), auth.Subject(c), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), auth.Subject(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": u})
}

func bindPage(c *gin.Context) (dashboard.Page, bool) {
	var p dashboard.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		respond.Fail(c, http.StatusBadRequest, "limit and offset must be integers")
		return p, false
	}
	if err := p.Validate(); err != nil {
		if verr, ok := validation.As(err); ok {
			respond.Validation(c, verr)
			return p, false
		}
		respond.Internal(c, err)
		return p, false
	}
	return p, true
}

func fail(c *gin.Context, err error) {
	if errors.Is(err, users.ErrUserNotFound) {
		respond.Fail(c, http.StatusNotFound, "User not found")
		return
	}
	respond.Internal(c, err)
}
