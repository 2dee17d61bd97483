package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dicebet-backend/internal/services"
)

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

func RateLimitMiddleware(redisService *services.RedisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}

		if !strings.HasSuffix(c.Request.URL.Path, "/game/play") {
			c.Next()
			return
		}

		allowed, err := redisService.CheckRateLimit(userID, "play", services.DefaultRateLimitPlays, services.RateLimitWindow)
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "Too many plays. Please wait.",
				"retry_after": services.RateLimitWindow.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
