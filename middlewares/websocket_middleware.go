package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/utils"
)

// WebSocketAuthMiddleware authenticates websocket upgrades, which cannot
// carry an Authorization header from browsers, through the token query.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		setPrincipal(c, claims, token)
		c.Next()
	}
}
