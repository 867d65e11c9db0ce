package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/galaxydo/waitlist-backend/internal/config"
	"github.com/galaxydo/waitlist-backend/internal/database"
	"github.com/galaxydo/waitlist-backend/internal/handlers"
	"github.com/galaxydo/waitlist-backend/internal/jobs"
	"github.com/galaxydo/waitlist-backend/internal/middleware"
	"github.com/galaxydo/waitlist-backend/internal/routes"
	"github.com/galaxydo/waitlist-backend/internal/services/leaderboard"
	"github.com/galaxydo/waitlist-backend/internal/services/rewards"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis client for the leaderboard cache. Redis being down is
	// not fatal; the leaderboard falls back to database reads.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Printf("Redis unavailable, leaderboard cache disabled: %v", err)
		redisClient = nil
	}

	// Initialize services
	rewardsService := rewards.NewService(db, cfg.Rewards)
	leaderboardService := leaderboard.NewService(db, redisClient, cfg.Leaderboard)

	// Schedule the aggregate reconciliation job
	reconcileJob := jobs.NewReconcileAggregatesJob(db, leaderboardService)
	if err := reconcileJob.Schedule(); err != nil {
		log.Fatalf("Failed to schedule reconciliation job: %v", err)
	}

	// Initialize rate limiter: 10 req/s per IP, 20 auth attempts per minute
	rateLimiter := middleware.NewRateLimiter(10, 20, 20, 5)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.Twitter, cfg.JWT)
	accountHandler := handlers.NewAccountHandler(rewardsService)
	rewardsHandler := handlers.NewRewardsHandler(rewardsService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, rewardsService)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Apply global middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	// Setup routes
	routes.SetupRoutes(router, authHandler, accountHandler, rewardsHandler, leaderboardHandler, rateLimiter)

	// Start server
	srv := startServer(router, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop background work
	reconcileJob.Stop()
	rateLimiter.Stop()

	// Create a deadline to wait for
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, port string) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", port)
	return srv
}
