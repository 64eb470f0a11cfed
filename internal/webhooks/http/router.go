package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/sign-up", h.SignUp)
	rg.POST("/update-user", h.UpdateUser)
	rg.POST("/delete-user", h.DeleteUser)
}
