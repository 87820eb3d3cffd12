package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/internal/utils"
	"github.com/huangang/gymdesk/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextUID    = "uid"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthRequired checks the bearer token and stores the caller's identity in
// the context. EventSource clients cannot set headers, so a token query
// parameter is accepted as well.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUID, claims.UID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}

	// "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AdminRequired rejects callers whose token does not carry the admin role.
// It runs on every admin route regardless of which dashboard the client shows.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetEmail gets the current user's email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// GetSession returns the signed-in identity as a service session.
func GetSession(c *gin.Context) services.Session {
	return services.Session{
		UserID: GetUserID(c),
		UID:    c.GetString(ContextUID),
		Email:  GetEmail(c),
		Role:   GetRole(c),
	}
}
