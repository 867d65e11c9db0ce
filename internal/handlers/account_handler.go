package handlers

import (
	"log"
	"net/http"

	"github.com/galaxydo/waitlist-backend/internal/services/rewards"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves the caller's account, ledger and wallet state
type AccountHandler struct {
	rewards *rewards.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(rewardsService *rewards.Service) *AccountHandler {
	return &AccountHandler{rewards: rewardsService}
}

// identityFromContext builds the caller identity set by the auth middleware
func identityFromContext(c *gin.Context) rewards.Identity {
	return rewards.Identity{
		ExternalID: c.GetString("external_id"),
		Email:      c.GetString("email"),
		Handle:     c.GetString("handle"),
	}
}

// GetAccount returns the caller's account or 404 when none exists yet
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.rewards.Account(c.Request.Context(), identityFromContext(c))
	if err != nil {
		log.Printf("failed to fetch account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch account"})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, account)
}

// GetPoints returns the caller's point grant history
func (h *AccountHandler) GetPoints(c *gin.Context) {
	grants, err := h.rewards.PointGrants(c.Request.Context(), identityFromContext(c))
	if err != nil {
		log.Printf("failed to fetch point grants: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch points"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": grants})
}

// GetWallet reports whether the caller has connected a wallet
func (h *AccountHandler) GetWallet(c *gin.Context) {
	linked, err := h.rewards.WalletLinked(c.Request.Context(), identityFromContext(c))
	if err != nil {
		log.Printf("failed to check wallet link: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"linked": linked})
}
