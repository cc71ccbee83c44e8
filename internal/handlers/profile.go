package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// ProfileHandler serves the /me views of the authenticated user.
type ProfileHandler struct {
	roles         *services.RolesService
	attendance    *services.AttendanceService
	subscriptions *services.SubscriptionService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(roles *services.RolesService, attendance *services.AttendanceService, subscriptions *services.SubscriptionService) *ProfileHandler {
	return &ProfileHandler{roles: roles, attendance: attendance, subscriptions: subscriptions}
}

// GET /api/v1/me/roles
func (h *ProfileHandler) Roles(c *gin.Context) {
	summary, err := h.roles.Summary(requestContext(c), actorID(c), "")
	respond(c, http.StatusOK, summary, err)
}

// GET /api/v1/me/attendances
func (h *ProfileHandler) Attendances(c *gin.Context) {
	attendances, err := h.attendance.ListMine(requestContext(c), actorID(c))
	respond(c, http.StatusOK, attendances, err)
}

// GET /api/v1/me/attended-programs
func (h *ProfileHandler) AttendedPrograms(c *gin.Context) {
	programs, err := h.attendance.MyAttendedPrograms(requestContext(c), actorID(c))
	respond(c, http.StatusOK, programs, err)
}

// GET /api/v1/me/attended-organizations
func (h *ProfileHandler) AttendedOrganizations(c *gin.Context) {
	orgs, err := h.attendance.MyAttendedOrganizations(requestContext(c), actorID(c))
	respond(c, http.StatusOK, orgs, err)
}

// GET /api/v1/me/subscriptions
func (h *ProfileHandler) Subscriptions(c *gin.Context) {
	subscriptions, err := h.subscriptions.ListMine(requestContext(c), actorID(c))
	respond(c, http.StatusOK, subscriptions, err)
}
