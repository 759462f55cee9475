package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"aroi-backend/ledger"
	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoyaltyHandler struct {
	DB *gorm.DB
}

// GetAccount returns the caller's loyalty account with the perks for
// its current tier.
func (h *LoyaltyHandler) GetAccount(c *gin.Context) {
	userID, _ := c.Get("user_id")

	ll := &ledger.LoyaltyLedger{DB: h.DB}
	account, err := ll.GetOrCreateAccount(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch loyalty account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":  account,
		"benefits": models.TierBenefits[account.Tier],
	})
}

// GetHistory returns the caller's point transactions, newest first.
func (h *LoyaltyHandler) GetHistory(c *gin.Context) {
	userID, _ := c.Get("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	ll := &ledger.LoyaltyLedger{DB: h.DB}
	account, err := ll.GetOrCreateAccount(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch loyalty account"})
		return
	}

	history, err := ll.History(account.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch loyalty history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": history,
		"points":       account.Points,
		"tier":         account.Tier,
	})
}

// RedeemPoints converts points into a discount at 10 points per THB.
func (h *LoyaltyHandler) RedeemPoints(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req struct {
		Points int `json:"points" binding:"required,gt=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	ll := &ledger.LoyaltyLedger{DB: h.DB}
	result, err := ll.RedeemPoints(userID.(uuid.UUID), req.Points)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientPoints), errors.Is(err, ledger.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Loyalty account not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem points"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTiers exposes the static tier table so clients can render
// progression without hardcoding it.
func (h *LoyaltyHandler) GetTiers(c *gin.Context) {
	type tierInfo struct {
		Tier     models.LoyaltyTier `json:"tier"`
		MinTotal int                `json:"min_total_earned"`
		Benefits models.TierBenefit `json:"benefits"`
	}

	tiers := []tierInfo{
		{Tier: models.TierBronze, MinTotal: 0, Benefits: models.TierBenefits[models.TierBronze]},
		{Tier: models.TierSilver, MinTotal: 1000, Benefits: models.TierBenefits[models.TierSilver]},
		{Tier: models.TierGold, MinTotal: 5000, Benefits: models.TierBenefits[models.TierGold]},
		{Tier: models.TierPlatinum, MinTotal: 15000, Benefits: models.TierBenefits[models.TierPlatinum]},
		{Tier: models.TierDiamond, MinTotal: 50000, Benefits: models.TierBenefits[models.TierDiamond]},
	}

	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}
