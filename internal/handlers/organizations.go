package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// OrganizationHandler exposes the organization registry and the programs and invites
// owned by an organization.
type OrganizationHandler struct {
	organizations *services.OrganizationService
	programs      *services.ProgramService
	invites       *services.InviteService
}

// NewOrganizationHandler constructs an OrganizationHandler.
func NewOrganizationHandler(organizations *services.OrganizationService, programs *services.ProgramService, invites *services.InviteService) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations, programs: programs, invites: invites}
}

// GET /api/v1/organizations?status=active|archived|all
func (h *OrganizationHandler) List(c *gin.Context) {
	status := services.OrganizationStatus(c.DefaultQuery("status", string(services.OrganizationStatusAll)))
	orgs, err := h.organizations.ListCreated(requestContext(c), actorID(c), status)
	respond(c, http.StatusOK, orgs, err)
}

// POST /api/v1/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	var body services.CreateOrganizationInput
	if !bindAndValidate(c, &body) {
		return
	}

	org, err := h.organizations.Create(requestContext(c), actorID(c), body)
	respond(c, http.StatusCreated, org, err)
}

// GET /api/v1/organizations/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.organizations.Get(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, org, err)
}

// POST /api/v1/organizations/:id/archive
func (h *OrganizationHandler) Archive(c *gin.Context) {
	org, err := h.organizations.Archive(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, org, err)
}

// POST /api/v1/organizations/:id/reactivate
func (h *OrganizationHandler) Reactivate(c *gin.Context) {
	org, err := h.organizations.Reactivate(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, org, err)
}

// GET /api/v1/organizations/:id/programs
func (h *OrganizationHandler) Programs(c *gin.Context) {
	programs, err := h.programs.ListByOrganization(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, programs, err)
}

// GET /api/v1/organizations/:id/associated-programs
func (h *OrganizationHandler) AssociatedPrograms(c *gin.Context) {
	programs, err := h.programs.ListAssociated(requestContext(c), c.Param("id"))
	respond(c, http.StatusOK, programs, err)
}

// GET /api/v1/organizations/:id/invites
func (h *OrganizationHandler) Invites(c *gin.Context) {
	invites, err := h.invites.ListByOrganization(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, invites, err)
}

// GET /api/v1/organizations/:id/memberships
func (h *OrganizationHandler) Memberships(c *gin.Context) {
	memberships, err := h.invites.ListMemberships(requestContext(c), actorID(c), c.Param("id"))
	respond(c, http.StatusOK, memberships, err)
}
