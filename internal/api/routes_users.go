package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers"
)

// Authorization for user routes is enforced by UserService against the caller's flags.
func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	users := api.Group("/users")
	{
		users.GET("", handler.List)
		users.GET("/:ref", handler.Get)
		users.GET("/:ref/organizations", handler.Organizations)
		users.GET("/:ref/roles", handler.Roles)
		users.POST("/:ref/ban", handler.Ban)
		users.POST("/:ref/unban", handler.Unban)
		users.POST("/:ref/staff", handler.AssignStaff)
		users.DELETE("/:ref/staff", handler.RevokeStaff)
		users.POST("/:ref/organization-creator", handler.AssignOrganizationCreator)
		users.DELETE("/:ref/organization-creator", handler.RevokeOrganizationCreator)
	}
}
