package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/config"
	"github.com/lecturelink/backend/pkg/response"
	"github.com/lecturelink/backend/pkg/utils"
)

// LoginRequest is the body for POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Handler handles admin auth HTTP endpoints. There is a single admin account
// configured through the environment; no user table.
type Handler struct {
	jwt    *JWTService
	admin  config.AdminConfig
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(jwt *JWTService, admin config.AdminConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{jwt: jwt, admin: admin, logger: logger}
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}

	if !h.credentialsValid(req) {
		h.logger.Warn("admin login rejected", zap.String("email", req.Email))
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(h.admin.Email)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, gin.H{"token": token})
}

// credentialsValid checks the request against the configured admin account.
// ADMIN_PASSWORD_HASH (bcrypt) takes precedence over the plain password.
func (h *Handler) credentialsValid(req LoginRequest) bool {
	if strings.TrimSpace(req.Email) != h.admin.Email {
		return false
	}
	if h.admin.PasswordHash != "" {
		return utils.CheckPassword(req.Password, h.admin.PasswordHash)
	}
	return req.Password == h.admin.Password
}
