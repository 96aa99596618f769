package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lecturelink/backend/internal/auth"
	"github.com/lecturelink/backend/pkg/response"
)

const (
	// ContextAdminEmail is the key for the authenticated admin email in gin
	// context.
	ContextAdminEmail = "admin_email"
)

// AdminJWT returns a middleware that validates the bearer token and requires
// it to belong to the configured admin account.
func AdminJWT(jwtService *auth.JWTService, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		if claims.Subject != adminEmail {
			response.Unauthorized(c, "not an admin token")
			c.Abort()
			return
		}
		c.Set(ContextAdminEmail, claims.Email)
		c.Next()
	}
}
