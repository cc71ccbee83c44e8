package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
	appErrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
	appValidator "github.com/Natan-Asrat/digital-attendance-backend/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and applies its validation tags.
// On failure the error response is already written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appValidator.AsAppError(err))
		return false
	}
	return true
}

// paginationQuery reads ?page= and ?per_page=, clamped the same way services clamp them.
func paginationQuery(c *gin.Context, defaultPerPage int) services.Pagination {
	return services.Pagination{
		Page:    intQuery(c, "page"),
		PerPage: intQuery(c, "per_page"),
	}.Normalise(defaultPerPage)
}

func intQuery(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

// parseBoolQuery returns nil when the parameter is absent or unparsable.
func parseBoolQuery(c *gin.Context, key string) *bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return nil
	}
	return &parsed
}

// parseTimeQuery reads an RFC 3339 timestamp; a malformed value is a bad request.
func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, appErrors.NewBadRequest(key + " must be an RFC 3339 timestamp")
	}
	return &ts, nil
}
