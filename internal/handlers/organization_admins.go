package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// OrganizationAdminHandler exposes delegated organization admin grants.
type OrganizationAdminHandler struct {
	admins *services.OrganizationAdminService
}

// NewOrganizationAdminHandler constructs an OrganizationAdminHandler.
func NewOrganizationAdminHandler(admins *services.OrganizationAdminService) *OrganizationAdminHandler {
	return &OrganizationAdminHandler{admins: admins}
}

// GET /api/v1/organizations/:id/admins?status=active|revoked
func (h *OrganizationAdminHandler) List(c *gin.Context) {
	grants, err := h.admins.List(requestContext(c), actorID(c), c.Param("id"), c.Query("status"))
	respond(c, http.StatusOK, grants, err)
}

// POST /api/v1/organizations/:id/admins
func (h *OrganizationAdminHandler) Assign(c *gin.Context) {
	var body services.AssignGrantInput
	if !bindAndValidate(c, &body) {
		return
	}

	grant, err := h.admins.Assign(requestContext(c), actorID(c), c.Param("id"), body)
	respond(c, http.StatusCreated, grant, err)
}

// GET /api/v1/organizations/:id/admins/:ref
func (h *OrganizationAdminHandler) Get(c *gin.Context) {
	grant, err := h.admins.Get(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"))
	respond(c, http.StatusOK, grant, err)
}

// PATCH /api/v1/organizations/:id/admins/:ref
func (h *OrganizationAdminHandler) Update(c *gin.Context) {
	var body services.UpdateGrantInput
	if !bindAndValidate(c, &body) {
		return
	}

	grant, err := h.admins.Update(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"), body)
	respond(c, http.StatusOK, grant, err)
}

// POST /api/v1/organizations/:id/admins/:ref/revoke
func (h *OrganizationAdminHandler) Revoke(c *gin.Context) {
	grant, err := h.admins.Revoke(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"))
	respond(c, http.StatusOK, grant, err)
}

// POST /api/v1/organizations/:id/admins/:ref/reinstate
func (h *OrganizationAdminHandler) Reinstate(c *gin.Context) {
	grant, err := h.admins.Reinstate(requestContext(c), actorID(c), c.Param("id"), c.Param("ref"))
	respond(c, http.StatusOK, grant, err)
}
