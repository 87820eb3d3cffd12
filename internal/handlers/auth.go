package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
	authCfg     *config.AuthConfig
}

func NewAuthHandler(authService *services.AuthService, authCfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{authService: authService, authCfg: authCfg}
}

// LoginResponse tells the client which dashboard to open. The dashboard
// choice is cosmetic; admin routes check the token role themselves.
type LoginResponse struct {
	Token            string       `json:"token"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	Dashboard        string       `json:"dashboard"` // admin, member
	User             *models.User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, user)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		writeError(c, err)
		return
	}

	dashboard := models.RoleMember
	if result.User.IsAdmin() {
		dashboard = models.RoleAdmin
	}
	response.Success(c, LoginResponse{
		Token:            result.AccessToken,
		ExpiresAt:        result.AccessExpireAt,
		RefreshToken:     result.RefreshToken,
		RefreshExpiresAt: result.RefreshExpireAt,
		Dashboard:        dashboard,
		User:             result.User,
	})
}

// Refresh rotates a refresh token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"token":              result.AccessToken,
		"expires_at":         result.AccessExpireAt,
		"refresh_token":      result.RefreshToken,
		"refresh_expires_at": result.RefreshExpireAt,
	})
}

// Logout revokes the refresh token and records the sign-out
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	// the body is optional
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), middleware.GetSession(c), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, user)
}

// ChangePassword updates the caller's local password
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), middleware.GetSession(c), &req); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "password updated"})
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"provider":             h.authCfg.Provider,
		"allow_role_selection": h.authCfg.AllowRoleSelection,
	})
}
