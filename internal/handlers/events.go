package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// EventHandler exposes events, the public short-code lookup and check-in.
type EventHandler struct {
	events     *services.EventService
	attendance *services.AttendanceService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *services.EventService, attendance *services.AttendanceService) *EventHandler {
	return &EventHandler{events: events, attendance: attendance}
}

type eventLookupRequest struct {
	ShortCode string `json:"short_code" validate:"required"`
}

// POST /api/v1/events/lookup
func (h *EventHandler) Lookup(c *gin.Context) {
	var body eventLookupRequest
	if !bindAndValidate(c, &body) {
		return
	}

	event, err := h.events.GetByShortCode(requestContext(c), body.ShortCode)
	respond(c, http.StatusOK, event, err)
}

// GET /api/v1/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, event, err)
}

// POST /api/v1/events/:id/archive
func (h *EventHandler) Archive(c *gin.Context) {
	event, err := h.events.Archive(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, event, err)
}

// POST /api/v1/events/:id/reactivate
func (h *EventHandler) Reactivate(c *gin.Context) {
	event, err := h.events.Reactivate(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, event, err)
}

// POST /api/v1/events/:id/conclude
func (h *EventHandler) Conclude(c *gin.Context) {
	event, err := h.events.Conclude(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, event, err)
}

// POST /api/v1/events/:id/check-in
func (h *EventHandler) CheckIn(c *gin.Context) {
	var body services.CheckInInput
	if !bindAndValidate(c, &body) {
		return
	}

	attendance, err := h.attendance.CheckIn(requestContext(c), actorID(c), c.Param("id"), body)
	respond(c, http.StatusCreated, attendance, err)
}

// GET /api/v1/events/:id/attendances
func (h *EventHandler) Attendances(c *gin.Context) {
	attendances, err := h.attendance.ListByEvent(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, attendances, err)
}
