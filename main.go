package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/config"
	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/events"
	"github.com/yeremiapane/table-reservation/hub"
	"github.com/yeremiapane/table-reservation/router"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin: %v", err)
	}

	feed := hub.New()
	notifiers := []services.Notifier{feed}
	var publisher *events.Publisher
	if cfg.RabbitMQURL != "" {
		publisher = events.NewPublisher(cfg.RabbitMQURL)
		notifiers = append(notifiers, publisher)
	}

	redisClient := config.NewRedisClient(cfg)

	processor := services.NewProcessorClient(services.ProcessorConfig{
		KeyID:     cfg.PaymentKeyID,
		KeySecret: cfg.PaymentKeySecret,
		BaseURL:   cfg.PaymentBaseURL,
		Timeout:   cfg.PaymentTimeout,
	})
	core := services.NewCore(
		db,
		services.Limits{
			MaxPartySize:     cfg.MaxPartySize,
			MaxTableCapacity: cfg.MaxTableCapacity,
			SlotTimes:        cfg.SlotTimes,
			Deposit:          cfg.BookingDeposit,
		},
		services.NewPaymentGate(cfg.PaymentKeySecret, processor),
		services.NewPaymentClaims(redisClient),
		services.NewMultiNotifier(notifiers...),
	)

	r := router.SetupRouter(db, core, feed, router.Options{
		CORSOrigin:   cfg.CORSOrigin,
		RateLimitRPS: cfg.RateLimitRPS,
		PaymentRPS:   10,
		HSTS:         cfg.GinMode == "release",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return services.NewUnbookedMonitor(db).Run(ctx)
	})

	g.Go(func() error {
		return utils.CleanupBlacklist(ctx, time.Hour)
	})

	g.Go(func() error {
		<-ctx.Done()
		utils.InfoLogger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		feed.Close()
		if publisher != nil {
			_ = publisher.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		utils.ErrorLogger.Fatalf("Server stopped: %v", err)
	}
}
