package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// ProgramHandler exposes programs together with their events, invites and subscribers.
type ProgramHandler struct {
	programs      *services.ProgramService
	events        *services.EventService
	invites       *services.InviteService
	subscriptions *services.SubscriptionService
}

// NewProgramHandler constructs a ProgramHandler.
func NewProgramHandler(programs *services.ProgramService, events *services.EventService, invites *services.InviteService, subscriptions *services.SubscriptionService) *ProgramHandler {
	return &ProgramHandler{programs: programs, events: events, invites: invites, subscriptions: subscriptions}
}

type createProgramRequest struct {
	OrganizationCode string `json:"organization_code" validate:"required"`
	Name             string `json:"name" validate:"required,max=255"`
}

type inviteOrganizationRequest struct {
	OrganizationCode string `json:"organization_code" validate:"required"`
}

// POST /api/v1/programs
func (h *ProgramHandler) Create(c *gin.Context) {
	var body createProgramRequest
	if !bindAndValidate(c, &body) {
		return
	}

	program, err := h.programs.Create(requestContext(c), actorID(c), strings.TrimSpace(body.OrganizationCode), services.CreateProgramInput{Name: body.Name})
	respond(c, http.StatusCreated, program, err)
}

// GET /api/v1/programs/:id
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programs.Get(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, program, err)
}

// POST /api/v1/programs/:id/archive
func (h *ProgramHandler) Archive(c *gin.Context) {
	program, err := h.programs.Archive(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, program, err)
}

// POST /api/v1/programs/:id/reactivate
func (h *ProgramHandler) Reactivate(c *gin.Context) {
	program, err := h.programs.Reactivate(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, program, err)
}

// GET /api/v1/programs/:id/events
func (h *ProgramHandler) Events(c *gin.Context) {
	events, err := h.events.ListByProgram(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, events, err)
}

// POST /api/v1/programs/:id/events
func (h *ProgramHandler) CreateEvent(c *gin.Context) {
	var body services.CreateEventInput
	if !bindAndValidate(c, &body) {
		return
	}

	event, err := h.events.Create(requestContext(c), actorID(c), c.Param("id"), body)
	respond(c, http.StatusCreated, event, err)
}

// GET /api/v1/programs/:id/invites
func (h *ProgramHandler) Invites(c *gin.Context) {
	invites, err := h.invites.ListByProgram(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, invites, err)
}

// POST /api/v1/programs/:id/invites
func (h *ProgramHandler) Invite(c *gin.Context) {
	var body inviteOrganizationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	invite, err := h.invites.Invite(requestContext(c), actorID(c), c.Param("id"), strings.TrimSpace(body.OrganizationCode))
	respond(c, http.StatusCreated, invite, err)
}

// GET /api/v1/programs/:id/subscribers
func (h *ProgramHandler) Subscribers(c *gin.Context) {
	subscribers, err := h.subscriptions.ListSubscribers(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, subscribers, err)
}

// POST /api/v1/programs/:id/subscription
func (h *ProgramHandler) Subscribe(c *gin.Context) {
	subscription, err := h.subscriptions.Subscribe(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, subscription, err)
}

// DELETE /api/v1/programs/:id/subscription
func (h *ProgramHandler) Unsubscribe(c *gin.Context) {
	subscription, err := h.subscriptions.Unsubscribe(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, subscription, err)
}
