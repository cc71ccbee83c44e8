package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerInviteRoutes(api *gin.RouterGroup, handler *handlers.InviteHandler) {
	invites := api.Group("/invites")
	{
		invites.GET("/:id", handler.Get)
		invites.POST("/:id/accept", handler.Accept)
		invites.POST("/:id/reject", handler.Reject)
		invites.POST("/:id/undo", handler.Undo)
	}

	api.POST("/memberships/:id/leave", handler.Leave)
}
