package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/utils"
)

// AuditLogger records who changed what on admin routes.
func AuditLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == "GET" {
			return
		}
		fields := logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
			"status": c.Writer.Status(),
		}
		if p, ok := CurrentPrincipal(c); ok {
			fields["actor"] = p.UserID
		}
		for _, param := range c.Params {
			fields[param.Key] = param.Value
		}

		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("Admin action")
		} else {
			utils.ErrorLogger.WithFields(fields).Warn("Admin action failed")
		}
	}
}
