package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

// RoleCheck allows the request through only for the given roles. It must run
// after an auth middleware.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, exists := CurrentPrincipal(c)
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if !lo.Contains(roles, p.Role) {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access required", roles[0]))
			c.Abort()
			return
		}

		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RoleCheck(models.RoleAdmin)
}
