package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerProfileRoutes(api *gin.RouterGroup, handler *handlers.ProfileHandler) {
	me := api.Group("/me")
	{
		me.GET("/roles", handler.Roles)
		me.GET("/attendances", handler.Attendances)
		me.GET("/attended-programs", handler.AttendedPrograms)
		me.GET("/attended-organizations", handler.AttendedOrganizations)
		me.GET("/subscriptions", handler.Subscriptions)
	}
}
