package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" && c.Query("token") == "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  status,
			"latency": latency,
			"ip":      c.ClientIP(),
		})
		if p, ok := CurrentPrincipal(c); ok {
			entry = entry.WithField("user_id", p.UserID)
		}
		if status >= 500 {
			entry.Error(path)
			return
		}
		entry.Info(path)
	}
}
