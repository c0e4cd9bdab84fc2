package main

import (
	"context"
	"log"
	"time"

	"github.com/NgocVuuu/film-sub001/internal/repositories"
	"github.com/NgocVuuu/film-sub001/internal/router"
	"github.com/NgocVuuu/film-sub001/pkg/config"
	"github.com/NgocVuuu/film-sub001/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	subscriptionRepo := router.SetupRoutes(e, db.Postgres, db.Mongo, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Periodic retention sweep for push subscriptions
	go runRetentionSweep(subscriptionRepo, cfg.SubscriptionTTLDays)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// runRetentionSweep removes push subscriptions that were never renewed within
// the retention window, independent of delivery outcomes.
func runRetentionSweep(repo repositories.PushSubscriptionRepository, ttlDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		removed, err := repo.PurgeExpired(ctx, time.Now().AddDate(0, 0, -ttlDays))
		cancel()
		if err != nil {
			log.Printf("[Push] Retention sweep failed: %v", err)
			continue
		}
		if removed > 0 {
			log.Printf("[Push] Retention sweep removed %d expired subscription(s)", removed)
		}
	}
}
