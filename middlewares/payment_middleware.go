package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/utils"
	"golang.org/x/time/rate"
)

// PaymentSecurityHeaders adds security headers for payment endpoints
func PaymentSecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Cache-Control", "no-store")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}

// PaymentRateLimiter caps the calls that reach the payment processor,
// across all clients.
func PaymentRateLimiter(rps int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 10
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Please wait before making another payment request",
			})
			return
		}
		c.Next()
	}
}

// PaymentEnvelope is the payment part of a paid booking request.
type PaymentEnvelope struct {
	Payment struct {
		OrderID   string `json:"order_id" binding:"required"`
		PaymentID string `json:"payment_id" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Amount    int64  `json:"amount" binding:"required,gt=0"`
	} `json:"payment" binding:"required"`
}

// ValidatePaymentRequest rejects paid requests without a complete payment
// receipt. The body is cached so handlers can bind it again with
// ShouldBindBodyWith.
func ValidatePaymentRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request PaymentEnvelope
		if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, utils.JSONResponse{
				Status:  false,
				Message: "Invalid payment: " + err.Error(),
				Code:    "validation_failed",
			})
			return
		}
		c.Next()
	}
}

// LogPaymentRequest logs payment request details
func LogPaymentRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		utils.InfoLogger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("Payment request")
	}
}
