package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/controllers"
	"github.com/yeremiapane/table-reservation/hub"
	"github.com/yeremiapane/table-reservation/metrics"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/services"
	"gorm.io/gorm"
)

type Options struct {
	CORSOrigin   string
	RateLimitRPS int
	PaymentRPS   int
	HSTS         bool
}

func SetupRouter(db *gorm.DB, core *services.Core, feed *hub.Hub, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders(opts.HSTS))
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(metrics.Middleware())
	if opts.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(opts.RateLimitRPS).RateLimit())
	}

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(core.Tables)
	availabilityCtrl := controllers.NewAvailabilityController(core.Availability)
	bookingCtrl := controllers.NewBookingController(core.Reservations, core.Lifecycle)
	adminCtrl := controllers.NewAdminController(core.Ledger, core.Tables, core.Unbooked)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/tables", tableCtrl.GetActiveTables)
	r.GET("/availability", availabilityCtrl.GetAvailability)

	if feed != nil {
		feedCtrl := controllers.NewFeedController(feed, opts.CORSOrigin)
		r.GET("/ws/bookings", middlewares.WebSocketAuthMiddleware(), feedCtrl.BookingFeed)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/profile", userCtrl.GetProfile)
		auth.POST("/logout", userCtrl.Logout)

		auth.POST("/bookings",
			middlewares.PaymentSecurityHeaders(),
			middlewares.PaymentRateLimiter(opts.PaymentRPS),
			middlewares.LogPaymentRequest(),
			middlewares.ValidatePaymentRequest(),
			bookingCtrl.CreateBooking,
		)
		auth.GET("/bookings", bookingCtrl.GetBookings)
		auth.GET("/bookings/:id", bookingCtrl.GetBooking)
		auth.POST("/bookings/:id/cancel", bookingCtrl.CancelBooking)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireAdmin(), middlewares.AuditLogger())
	{
		admin.GET("/dashboard", adminCtrl.GetDashboardStats)

		admin.GET("/tables", tableCtrl.GetAllTables)
		admin.GET("/tables/:number", tableCtrl.GetTable)
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PATCH("/tables/:number", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:number", tableCtrl.DeleteTable)

		admin.POST("/bookings", bookingCtrl.CreateManualBooking)
		admin.PATCH("/bookings/:id/status", bookingCtrl.UpdateBookingStatus)
		admin.PUT("/bookings/:id/table", bookingCtrl.AssignTable)

		admin.GET("/unbooked-payments", adminCtrl.GetUnbookedPayments)
		admin.POST("/unbooked-payments/:id/resolve", adminCtrl.ResolveUnbookedPayment)
	}

	return r
}
