package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/galaxydo/waitlist-backend/internal/services/leaderboard"
	"github.com/galaxydo/waitlist-backend/internal/services/rewards"
	"github.com/gin-gonic/gin"
)

// LeaderboardHandler serves the ranking projection
type LeaderboardHandler struct {
	leaderboard *leaderboard.Service
	rewards     *rewards.Service
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(lb *leaderboard.Service, rewardsService *rewards.Service) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: lb, rewards: rewardsService}
}

// GetLeaderboard returns one page of the leaderboard plus the caller's position
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.leaderboard.PageFor(c.Request.Context(), page)
	if err != nil {
		log.Printf("failed to fetch leaderboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	// Position is 0 while the caller has no account yet.
	var position int64
	account, err := h.rewards.Account(c.Request.Context(), identityFromContext(c))
	if err != nil {
		log.Printf("failed to fetch caller account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}
	if account != nil {
		position, err = h.leaderboard.Rank(c.Request.Context(), account.ID)
		if err != nil {
			log.Printf("failed to compute rank: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   result.Entries,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
		"position":  position,
	})
}
