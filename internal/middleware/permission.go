package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/permissions"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// RequirePermission checks that the authenticated user may perform an action that has no
// organization or program scope, such as reading the audit log.
func RequirePermission(users *services.UserService, evaluator *permissions.Evaluator, action permissions.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := users.Get(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Error(c, services.ErrActorBanned)
			c.Abort()
			return
		}

		if err := evaluator.Require(c.Request.Context(), user, action, permissions.Target{}); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
