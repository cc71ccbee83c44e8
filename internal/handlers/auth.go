package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

// AuthHandler exposes registration and signature login.
type AuthHandler struct {
	users *services.UserService
	auth  *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

type emailLoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Signature string `json:"signature" validate:"required"`
}

type phoneLoginRequest struct {
	Phone     string `json:"phone" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var body services.RegisterUserInput
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.users.Register(requestContext(c), body)
	respond(c, http.StatusCreated, user, err)
}

// POST /api/v1/auth/login/email
func (h *AuthHandler) LoginEmail(c *gin.Context) {
	var body emailLoginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.auth.LoginByEmail(requestContext(c), strings.TrimSpace(body.Email), body.Signature)
	respond(c, http.StatusOK, result, err)
}

// POST /api/v1/auth/login/phone
func (h *AuthHandler) LoginPhone(c *gin.Context) {
	var body phoneLoginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.auth.LoginByPhone(requestContext(c), strings.TrimSpace(body.Phone), body.Signature)
	respond(c, http.StatusOK, result, err)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), actorID(c))
	respond(c, http.StatusOK, user, err)
}
