package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reloop-app/reloop-backend/internal/api/http/respond"
	"github.com/reloop-app/reloop-backend/internal/auth"
	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/validation"
)

// ListItem creates a listing owned by the caller.
func (h *Handler) ListItem(c *gin.Context) {
	var req domain.ListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadJSON(c)
		return
	}

	id, err := h.items.ListItem(c.Request.Context(), auth.Subject(c), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": id})
}

// SearchItems reads its filter from the URL-encoded JSON in ?filters=.
func (h *Handler) SearchItems(c *gin.Context) {
	raw, ok := c.GetQuery("filters")
	if !ok || raw == "" {
		respond.Fail(c, http.StatusBadRequest, "filters query parameter is required")
		return
	}

	var f domain.SearchFilter
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		respond.Fail(c, http.StatusBadRequest, "filters must be a JSON object")
		return
	}

	result, err := h.items.SearchItems(c.Request.Context(), &f)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.items.GetItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) UpdateItem(c *gin.Context) {
	var req domain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadJSON(c)
		return
	}

	item, err := h.items.UpdateItem(c.Request.Context(), auth.Subject(c), c.Param("itemId"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully", "item": item})
}

func (h *Handler) DeleteItem(c *gin.Context) {
	if err := h.items.DeleteItem(c.Request.Context(), auth.Subject(c), c.Param("itemId")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

func (h *Handler) CreatePickupRequest(c *gin.Context) {
	var in domain.PickupRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadJSON(c)
		return
	}

	p, err := h.items.CreatePickupRequest(c.Request.Context(), auth.Subject(c), &in)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Pickup request created successfully", "pickupRequest": p})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if verr, ok := validation.As(err); ok {
		respond.Validation(c, verr)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnsupportedCategory):
		respond.Fail(c, http.StatusBadRequest, "Unsupported category")
	case errors.Is(err, domain.ErrInvalidItemID):
		respond.Fail(c, http.StatusBadRequest, "Invalid or missing item ID")
	case errors.Is(err, users.ErrUserNotFound):
		respond.Fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrItemNotFound):
		respond.Fail(c, http.StatusNotFound, "Item not found")
	case errors.Is(err, domain.ErrForbidden):
		respond.Fail(c, http.StatusForbidden, "You are not allowed to modify this item")
	default:
		respond.Internal(c, err)
	}
}
