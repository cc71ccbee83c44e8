package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// AuditHandler exposes the audit log to platform staff.
type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// GET /api/v1/audit?actor_id=&action=&result=&resource=&since=&until=
func (h *AuditHandler) List(c *gin.Context) {
	since, err := parseTimeQuery(c, "since")
	if err != nil {
		respondError(c, err)
		return
	}
	until, err := parseTimeQuery(c, "until")
	if err != nil {
		respondError(c, err)
		return
	}

	page := paginationQuery(c, 50)
	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{
		Pagination: page,
		Filters: services.AuditFilters{
			ActorID:  c.Query("actor_id"),
			Action:   c.Query("action"),
			Result:   c.Query("result"),
			Resource: c.Query("resource"),
			Since:    since,
			Until:    until,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Paginated(c, logs, response.NewMeta(page.Page, page.PerPage, total))
}
