package routes

import (
	"github.com/galaxydo/waitlist-backend/internal/handlers"
	"github.com/galaxydo/waitlist-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers all API routes
func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	rewardsHandler *handlers.RewardsHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	rateLimiter *middleware.RateLimiter,
) {
	// Auth routes get the stricter limiter
	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/twitter", authHandler.TwitterAuth)
	}

	// Everything else requires a session token
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/account", accountHandler.GetAccount)
		api.GET("/account/points", accountHandler.GetPoints)
		api.GET("/account/wallet", accountHandler.GetWallet)

		api.POST("/rewards/claim-code", rewardsHandler.ClaimCode)
		api.POST("/rewards/wallet", rewardsHandler.SaveWallet)
		api.POST("/rewards/twitter-follow", rewardsHandler.ConfirmTwitterFollow)
		api.GET("/rewards/twitter-follow", rewardsHandler.GetTwitterFollowed)
		api.POST("/rewards/discord-join", rewardsHandler.ConfirmDiscordJoin)
		api.GET("/rewards/discord-join", rewardsHandler.GetDiscordJoined)

		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	}
}
