package middleware

import (
	"strings"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	DriverIDKey = "driverId"
	RoleKey     = "role"
	TokenKey    = "token"
)

// RoleDriver is the only role allowed on the driver routes. Tokens without a
// role are accepted as drivers.
const RoleDriver = "driver"

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// websocket clients cannot set headers
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Authorization header or token query parameter required"})
			c.Abort()
			return
		}

		token, err := utils.ValidateToken(secret, tokenString)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		id, role, err := utils.DriverClaims(token)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		if role != "" && role != RoleDriver {
			c.JSON(403, gin.H{"error": "Driver account required"})
			c.Abort()
			return
		}

		c.Set(DriverIDKey, id)
		c.Set(RoleKey, role)
		c.Set(TokenKey, tokenString)
		c.Next()
	}
}

// CurrentDriver returns the authenticated driver, carrying the raw token so
// it can be forwarded to the listings service.
func CurrentDriver(c *gin.Context) models.Driver {
	return models.Driver{ID: c.GetString(DriverIDKey), Token: c.GetString(TokenKey)}
}
