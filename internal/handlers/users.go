package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// UserHandler exposes the identity store and platform flag transitions.
type UserHandler struct {
	users         *services.UserService
	organizations *services.OrganizationService
	roles         *services.RolesService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *services.UserService, organizations *services.OrganizationService, roles *services.RolesService) *UserHandler {
	return &UserHandler{users: users, organizations: organizations, roles: roles}
}

// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	page := paginationQuery(c, 20)
	users, total, err := h.users.List(requestContext(c), actorID(c), services.ListUsersOptions{
		Pagination: page,
		Filters: services.UserFilters{
			IsActive: parseBoolQuery(c, "is_active"),
			IsStaff:  parseBoolQuery(c, "is_staff"),
			Query:    strings.TrimSpace(c.Query("q")),
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Paginated(c, users, response.NewMeta(page.Page, page.PerPage, total))
}

// GET /api/v1/users/:ref
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Lookup(requestContext(c), c.Param("ref"))
	respond(c, http.StatusOK, user, err)
}

// POST /api/v1/users/:ref/ban
func (h *UserHandler) Ban(c *gin.Context) {
	h.transition(c, h.users.Ban)
}

// POST /api/v1/users/:ref/unban
func (h *UserHandler) Unban(c *gin.Context) {
	h.transition(c, h.users.Unban)
}

// POST /api/v1/users/:ref/staff
func (h *UserHandler) AssignStaff(c *gin.Context) {
	h.transition(c, h.users.AssignStaff)
}

// DELETE /api/v1/users/:ref/staff
func (h *UserHandler) RevokeStaff(c *gin.Context) {
	h.transition(c, h.users.RevokeStaff)
}

// POST /api/v1/users/:ref/organization-creator
func (h *UserHandler) AssignOrganizationCreator(c *gin.Context) {
	h.transition(c, h.users.AssignOrganizationCreator)
}

// DELETE /api/v1/users/:ref/organization-creator
func (h *UserHandler) RevokeOrganizationCreator(c *gin.Context) {
	h.transition(c, h.users.RevokeOrganizationCreator)
}

// GET /api/v1/users/:ref/organizations
func (h *UserHandler) Organizations(c *gin.Context) {
	orgs, err := h.organizations.ListForUser(requestContext(c), actorID(c), c.Param("ref"))
	respond(c, http.StatusOK, orgs, err)
}

// GET /api/v1/users/:ref/roles
func (h *UserHandler) Roles(c *gin.Context) {
	summary, err := h.roles.Summary(requestContext(c), actorID(c), c.Param("ref"))
	respond(c, http.StatusOK, summary, err)
}

func (h *UserHandler) transition(c *gin.Context, apply func(ctx context.Context, actorID, targetRef string) (*models.User, error)) {
	user, err := apply(requestContext(c), actorID(c), c.Param("ref"))
	respond(c, http.StatusOK, user, err)
}
