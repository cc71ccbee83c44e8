package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// InviteHandler exposes the invite workflow and membership exits.
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// GET /api/v1/invites/:id
func (h *InviteHandler) Get(c *gin.Context) {
	invite, err := h.invites.Get(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, invite, err)
}

// POST /api/v1/invites/:id/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	invite, err := h.invites.Accept(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, invite, err)
}

// POST /api/v1/invites/:id/reject
func (h *InviteHandler) Reject(c *gin.Context) {
	invite, err := h.invites.Reject(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, invite, err)
}

// POST /api/v1/invites/:id/undo
func (h *InviteHandler) Undo(c *gin.Context) {
	invite, err := h.invites.Undo(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, invite, err)
}

// POST /api/v1/memberships/:id/leave
func (h *InviteHandler) Leave(c *gin.Context) {
	membership, err := h.invites.Leave(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, membership, err)
}
