package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerProgramRoutes(api *gin.RouterGroup, handler *handlers.ProgramHandler, admins *handlers.ProgramEventAdminHandler) {
	programs := api.Group("/programs")
	{
		programs.POST("", handler.Create)
		programs.GET("/:id", handler.Get)
		programs.POST("/:id/archive", handler.Archive)
		programs.POST("/:id/reactivate", handler.Reactivate)

		programs.GET("/:id/events", handler.Events)
		programs.POST("/:id/events", handler.CreateEvent)

		programs.GET("/:id/invites", handler.Invites)
		programs.POST("/:id/invites", handler.Invite)

		programs.GET("/:id/subscribers", handler.Subscribers)
		programs.POST("/:id/subscription", handler.Subscribe)
		programs.DELETE("/:id/subscription", handler.Unsubscribe)

		programs.GET("/:id/admins", admins.List)
		programs.POST("/:id/admins", admins.Assign)
		programs.POST("/:id/admins/leave", admins.Leave)
		programs.GET("/:id/admins/:ref", admins.Get)
		programs.PATCH("/:id/admins/:ref", admins.Update)
		programs.DELETE("/:id/admins/:ref", admins.Revoke)
		programs.POST("/:id/admins/:ref/reinstate", admins.Reinstate)
	}
}
