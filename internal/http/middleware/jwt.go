package middleware

import (
	"net/http"
	"strings"

	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT gates protected routes. A missing token and an invalid one both
// abort with 401; the messages differ only as a diagnostic aid.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token supplied"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := service.ParseJWT(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid/expired token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
