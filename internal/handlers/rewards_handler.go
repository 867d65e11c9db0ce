package handlers

import (
	"log"
	"net/http"

	"github.com/galaxydo/waitlist-backend/internal/services/rewards"
	"github.com/gin-gonic/gin"
)

// RewardsHandler exposes the reward-triggering operations
type RewardsHandler struct {
	rewards *rewards.Service
}

// NewRewardsHandler creates a new rewards handler
func NewRewardsHandler(rewardsService *rewards.Service) *RewardsHandler {
	return &RewardsHandler{rewards: rewardsService}
}

// ClaimCodeRequest represents the request body for redeeming an invitation code
type ClaimCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// SavePrincipalRequest represents the request body for connecting a wallet
type SavePrincipalRequest struct {
	PrincipalID string `json:"principal_id" binding:"required"`
}

// ClaimCode redeems an invitation code and creates the caller's account
func (h *RewardsHandler) ClaimCode(c *gin.Context) {
	var req ClaimCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.rewards.ClaimCode(c.Request.Context(), identityFromContext(c), req.Code)
	respondOutcome(c, outcome, err)
}

// SaveWallet stores the caller's wallet principal and grants the connect reward
func (h *RewardsHandler) SaveWallet(c *gin.Context) {
	var req SavePrincipalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.rewards.SavePrincipalID(c.Request.Context(), identityFromContext(c), req.PrincipalID)
	respondOutcome(c, outcome, err)
}

// ConfirmTwitterFollow grants the Twitter follow reward
func (h *RewardsHandler) ConfirmTwitterFollow(c *gin.Context) {
	outcome, err := h.rewards.ConfirmTwitterFollow(c.Request.Context(), identityFromContext(c))
	respondOutcome(c, outcome, err)
}

// ConfirmDiscordJoin grants the Discord join reward
func (h *RewardsHandler) ConfirmDiscordJoin(c *gin.Context) {
	outcome, err := h.rewards.ConfirmDiscordJoin(c.Request.Context(), identityFromContext(c))
	respondOutcome(c, outcome, err)
}

// GetTwitterFollowed reports whether the Twitter follow reward was granted
func (h *RewardsHandler) GetTwitterFollowed(c *gin.Context) {
	followed, err := h.rewards.TwitterFollowed(c.Request.Context(), identityFromContext(c))
	if err != nil {
		log.Printf("failed to check twitter follow: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": followed})
}

// GetDiscordJoined reports whether the Discord join reward was granted
func (h *RewardsHandler) GetDiscordJoined(c *gin.Context) {
	joined, err := h.rewards.DiscordJoined(c.Request.Context(), identityFromContext(c))
	if err != nil {
		log.Printf("failed to check discord join: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": joined})
}

// respondOutcome maps a rewards outcome to an HTTP response, so clients can
// tell "already done" from "precondition failed" from "server broke".
func respondOutcome(c *gin.Context, outcome rewards.Outcome, err error) {
	if err != nil {
		log.Printf("reward operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reward operation failed"})
		return
	}

	switch outcome {
	case rewards.OutcomeGranted:
		c.JSON(http.StatusOK, gin.H{"granted": true})
	case rewards.OutcomeAlreadyGranted:
		c.JSON(http.StatusOK, gin.H{"granted": false, "reason": string(outcome)})
	case rewards.OutcomeInvalidCode:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid invitation code"})
	case rewards.OutcomeAccountExists:
		c.JSON(http.StatusConflict, gin.H{"error": "Account already exists"})
	case rewards.OutcomeNoAccount:
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reward operation failed"})
	}
}
