package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// ProgramEventAdminHandler exposes delegated program event admin grants.
type ProgramEventAdminHandler struct {
	admins *services.ProgramEventAdminService
}

// NewProgramEventAdminHandler constructs a ProgramEventAdminHandler.
func NewProgramEventAdminHandler(admins *services.ProgramEventAdminService) *ProgramEventAdminHandler {
	return &ProgramEventAdminHandler{admins: admins}
}

// GET /api/v1/programs/:id/admins?status=active|revoked
func (h *ProgramEventAdminHandler) List(c *gin.Context) {
	grants, err := h.admins.List(requestContext(c), actorID(c), c.Param("id"), c.Query("status"))
	respond(c, http.StatusOK, grants, err)
}

// POST /api/v1/programs/:id/admins
func (h *ProgramEventAdminHandler) Assign(c *gin.Context) {
	var body services.AssignGrantInput
	if !bindAndValidate(c, &body) {
		return
	}

	grant, err := h.admins.Assign(requestContext(c), actorID(c), c.Param("id"), body)
	respond(c, http.StatusCreated, grant, err)
}

// POST /api/v1/programs/:id/admins/leave
func (h *ProgramEventAdminHandler) Leave(c *gin.Context) {
	grant, err := h.admins.Leave(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, grant, err)
}

// GET /api/v1/programs/:id/admins/:ref
func (h *ProgramEventAdminHandler) Get(c *gin.Context) {
	grant, err := h.admins.Get(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"))
	respond(c, http.StatusOK, grant, err)
}

// PATCH /api/v1/programs/:id/admins/:ref
func (h *ProgramEventAdminHandler) Update(c *gin.Context) {
	var body services.UpdateGrantInput
	if !bindAndValidate(c, &body) {
		return
	}

	grant, err := h.admins.Update(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"), body)
	respond(c, http.StatusOK, grant, err)
}

// POST /api/v1/programs/:id/admins/:ref/revoke
func (h *ProgramEventAdminHandler) Revoke(c *gin.Context) {
	grant, err := h.admins.Revoke(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"))
	respond(c, http.StatusOK, grant, err)
}

// POST /api/v1/programs/:id/admins/:ref/reinstate
func (h *ProgramEventAdminHandler) Reinstate(c *gin.Context) {
	grant, err := h.admins.Reinstate(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"))
	respond(c, http.StatusOK, grant, err)
}
