package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerEventRoutes(api *gin.RouterGroup, handler *handlers.EventHandler) {
	events := api.Group("/events")
	{
		events.GET("/:id", handler.Get)
		events.POST("/:id/archive", handler.Archive)
		events.POST("/:id/reactivate", handler.Reactivate)
		events.POST("/:id/conclude", handler.Conclude)
		events.POST("/:id/check-in", handler.CheckIn)
		events.GET("/:id/attendances", handler.Attendances)
	}
}

func registerAttendanceRoutes(api *gin.RouterGroup, handler *handlers.AttendanceHandler) {
	attendances := api.Group("/attendances")
	{
		attendances.GET("/:id", handler.Get)
		attendances.POST("/:id/invalidate", handler.Invalidate)
		attendances.POST("/:id/revalidate", handler.Revalidate)
		attendances.PATCH("/:id/display-name", handler.UpdateDisplayName)
	}
}
