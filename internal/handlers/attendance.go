package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// AttendanceHandler exposes adjustments to recorded attendances.
type AttendanceHandler struct {
	attendance *services.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// GET /api/v1/attendances/:id
func (h *AttendanceHandler) Get(c *gin.Context) {
	attendance, err := h.attendance.Get(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, attendance, err)
}

// POST /api/v1/attendances/:id/invalidate
func (h *AttendanceHandler) Invalidate(c *gin.Context) {
	attendance, err := h.attendance.Invalidate(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, attendance, err)
}

// POST /api/v1/attendances/:id/validate
func (h *AttendanceHandler) Revalidate(c *gin.Context) {
	attendance, err := h.attendance.Revalidate(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, attendance, err)
}

// PATCH /api/v1/attendances/:id
func (h *AttendanceHandler) UpdateDisplayName(c *gin.Context) {
	var body displayNameRequest
	if !bindAndValidate(c, &body) {
		return
	}

	attendance, err := h.attendance.UpdateDisplayName(requestContext(c), actorID(c), c.Param("id"), body.DisplayName)
	respond(c, http.StatusOK, attendance, err)
}
