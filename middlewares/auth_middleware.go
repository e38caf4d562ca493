package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

// PrincipalKey is the gin context key holding the authenticated models.Principal.
const PrincipalKey = "principal"

// AuthMiddleware requires a valid, non-revoked bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid token format"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		setPrincipal(c, claims, tokenString)
		c.Next()
	}
}

func setPrincipal(c *gin.Context, claims *utils.CustomClaims, token string) {
	c.Set(PrincipalKey, models.Principal{UserID: claims.UserID, Role: claims.Role})
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	c.Set("token", token)
}

// CurrentPrincipal returns the principal set by the auth middlewares.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}
