package http

import "github.com/gin-gonic/gin"

// Register mounts the item routes. Reads go through limit, writes through
// requireAuth.
func (h *Handler) Register(rg *gin.RouterGroup, requireAuth, limit gin.HandlerFunc) {
	rg.GET("/search-items", limit, h.SearchItems)
	rg.GET("/get-item/:itemId", limit, h.GetItem)

	rg.POST("/list-item", requireAuth, h.ListItem)
	rg.PUT("/update-item/:itemId", requireAuth, h.UpdateItem)
	rg.DELETE("/delete-item/:itemId", requireAuth, h.DeleteItem)
	rg.POST("/create-pickup-request", requireAuth, h.CreatePickupRequest)
}
