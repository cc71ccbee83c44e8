package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

func registerOrganizationRoutes(api *gin.RouterGroup, handler *handlers.OrganizationHandler, admins *handlers.OrganizationAdminHandler) {
	orgs := api.Group("/organizations")
	{
		orgs.GET("", handler.List)
		orgs.POST("", handler.Create)
		orgs.GET("/:id", handler.Get)
		orgs.POST("/:id/archive", handler.Archive)
		orgs.POST("/:id/reactivate", handler.Reactivate)
		orgs.GET("/:id/programs", handler.Programs)
		orgs.GET("/:id/associated-programs", handler.AssociatedPrograms)
		orgs.GET("/:id/invites", handler.Invites)
		orgs.GET("/:id/memberships", handler.Memberships)

		orgs.GET("/:id/admins", admins.List)
		orgs.POST("/:id/admins", admins.Assign)
		orgs.GET("/:id/admins/:ref", admins.Get)
		orgs.PATCH("/:id/admins/:ref", admins.Update)
		orgs.DELETE("/:id/admins/:ref", admins.Revoke)
		orgs.POST("/:id/admins/:ref/reinstate", admins.Reinstate)
	}
}
