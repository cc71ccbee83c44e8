package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/monitoring"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// Health evaluates the dependency probes. Any probe that is not up turns the response into a 503.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))

		code := http.StatusOK
		if !report.Healthy() {
			code = http.StatusServiceUnavailable
		}
		response.Success(c, code, report)
	}
}
