package router

import (
	"context"
	"log"
	"time"

	"github.com/NgocVuuu/film-sub001/internal/handlers"
	"github.com/NgocVuuu/film-sub001/internal/middleware"
	"github.com/NgocVuuu/film-sub001/internal/models"
	"github.com/NgocVuuu/film-sub001/internal/notify"
	"github.com/NgocVuuu/film-sub001/internal/push"
	"github.com/NgocVuuu/film-sub001/internal/repositories"
	"github.com/NgocVuuu/film-sub001/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies. It
// returns the push subscription repository so the caller can run the retention
// sweep against it.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, cfg *config.Config) repositories.PushSubscriptionRepository {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(&models.Notification{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	mongoDB := mgClient.Database("filmsub")
	progressRepo := repositories.NewMongoProgressRepository(mongoDB)
	subscriptionRepo := repositories.NewMongoPushSubscriptionRepository(mongoDB)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := progressRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create progress indexes: %v", err)
	}
	if err := subscriptionRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create push subscription indexes: %v", err)
	}
	log.Println("MongoDB indexes ensured.")

	// --- Push delivery plumbing ---
	pushCfg := push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.PushSubscriber,
		TTL:             cfg.PushTTL,
	}
	if pushCfg.Enabled() {
		log.Println("Web push delivery enabled.")
	} else {
		log.Println("VAPID keys not configured, push delivery disabled.")
	}
	sender := push.NewWebPushSender(pushCfg)
	dispatcher := notify.NewDispatcher(notificationRepo, subscriptionRepo, sender, pushCfg, cfg.PushTimeout)
	broadcaster := notify.NewBroadcaster(dispatcher, cfg.BroadcastWorkers)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Watch progress routes
	progressHandler := handlers.NewProgressHandler(progressRepo)
	progressHandler.RegisterProgressRoutes(api)
	log.Println("Progress routes configured.")

	// Push subscription routes
	pushHandler := handlers.NewPushHandler(subscriptionRepo, handlers.PremiumEntitlements{}, pushCfg, broadcaster)
	pushHandler.RegisterPushRoutes(api)
	log.Println("Push routes configured.")

	// Notification inbox routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
	return subscriptionRepo
}
