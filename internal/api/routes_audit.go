package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler, requireView gin.HandlerFunc) {
	api.GET("/audit", requireView, handler.List)
}
