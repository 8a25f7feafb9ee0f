package middleware

import (
	"net/http"
	"strings"

	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT validates the Authorization bearer token and puts user_id and role
// into the gin context for handlers downstream.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
			return
		}

		userID, role, err := service.ParseJWT(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Set("role", string(role))
		c.Next()
	}
}
