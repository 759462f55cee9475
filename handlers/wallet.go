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

type WalletHandler struct {
	DB *gorm.DB
}

// GetWallet returns the caller's wallet with its recent transactions.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, _ := c.Get("user_id")

	wl := &ledger.WalletLedger{DB: h.DB}
	wallet, err := wl.GetOrCreateWallet(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallet"})
		return
	}

	txns, err := wl.Transactions(wallet.ID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallet transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":              wallet,
		"recent_transactions": txns,
	})
}

// TopUp credits the wallet after a payment gateway confirms the charge.
// The gateway reference is stored on the transaction for
// reconciliation.
func (h *WalletHandler) TopUp(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	var req struct {
		Amount          float64 `json:"amount" binding:"required,gt=0"`
		GatewayTxnID    string  `json:"gateway_txn_id" binding:"required"`
		GatewayProvider string  `json:"gateway_provider" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	// Reject replays of the same gateway transaction.
	var existing models.WalletTransaction
	if err := h.DB.Where("gateway_txn_id = ? AND gateway_provider = ?", req.GatewayTxnID, req.GatewayProvider).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "This payment has already been processed"})
		return
	}

	wl := &ledger.WalletLedger{DB: h.DB}
	txn, err := wl.TopUp(uid, req.Amount, req.GatewayTxnID, req.GatewayProvider)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to top up wallet"})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", uid).First(&user).Error; err == nil {
		utils.SendTopUpReceipt(user.Email, user.Name, txn.Amount, txn.BalanceAfter)
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction": txn,
		"balance":     txn.BalanceAfter,
	})
}

// GetTransactions returns the wallet's full transaction log, newest
// first.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, _ := c.Get("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	wl := &ledger.WalletLedger{DB: h.DB}
	wallet, err := wl.GetOrCreateWallet(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallet"})
		return
	}

	txns, err := wl.Transactions(wallet.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallet transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id":    wallet.ID,
		"balance":      wallet.Balance,
		"transactions": txns,
	})
}
