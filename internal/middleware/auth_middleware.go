package middleware

import (
	"net/http"
	"strings"

	"pharmacy-manager/internal/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextClaims = "claims"
	ContextUserID = "user_id"
)

// AuthMiddleware requires a valid bearer token and stores the decoded
// claims in the request context. Missing, invalid and expired tokens all
// map to 403.
func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, claims.UserID)

		c.Next()
	}
}

// AdminMiddleware gates administrative endpoints. Runs after
// AuthMiddleware; a non-admin caller always gets 403, never a 200 with a
// denial body.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CallerClaims(c)
		if claims == nil || !claims.Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerClaims returns the token claims stored by AuthMiddleware, or nil
// on unauthenticated routes.
func CallerClaims(c *gin.Context) *services.Claims {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*services.Claims)
	return claims
}

// ValidationMiddleware rejects mutating requests whose body is neither
// JSON nor a multipart upload. Bodyless requests (Basic-Auth login) pass.
func ValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			if c.Request.ContentLength > 0 {
				contentType := c.GetHeader("Content-Type")
				if !strings.Contains(contentType, "application/json") &&
					!strings.Contains(contentType, "multipart/form-data") {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
					c.Abort()
					return
				}
			}
		}
		c.Next()
	}
}
