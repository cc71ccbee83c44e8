package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login/email", handler.LoginEmail)
		auth.POST("/login/phone", handler.LoginPhone)
	}
}
