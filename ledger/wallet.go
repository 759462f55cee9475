package ledger

import (
	"aroi-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletLedger posts cash transactions against per-user wallets with
// the same pairing discipline as the loyalty ledger: balance mutation
// and audit row are one atomic unit. DB may be a live transaction, in
// which case the inner Transaction call becomes a savepoint.
type WalletLedger struct {
	DB *gorm.DB
}

// GetOrCreateWallet returns the user's wallet, creating it with a zero
// balance on first access.
func (l *WalletLedger) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := l.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		wallet = models.Wallet{UserID: userID}
		if cerr := l.DB.Create(&wallet).Error; cerr != nil {
			// A concurrent first access can win the insert; the unique
			// index on user_id fails ours, so re-read the winner's row.
			if rerr := l.DB.Where("user_id = ?", userID).First(&wallet).Error; rerr != nil {
				return nil, cerr
			}
		}
	}
	return &wallet, nil
}

// TopUp credits the wallet and records the gateway reference for
// reconciliation.
func (l *WalletLedger) TopUp(userID uuid.UUID, amount float64, gatewayTxnID, gatewayProvider string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return l.post(userID, models.WalletTxnTopUp, amount, "Wallet top-up", nil, gatewayTxnID, gatewayProvider)
}

// Debit charges the wallet for an order. Fails with
// ErrInsufficientBalance when the wallet cannot cover the amount.
func (l *WalletLedger) Debit(userID uuid.UUID, amount float64, orderID *uuid.UUID, description string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return l.post(userID, models.WalletTxnPayment, -amount, description, orderID, "", "")
}

// Refund credits a previously debited amount back, e.g. when a
// wallet-paid order is cancelled.
func (l *WalletLedger) Refund(userID uuid.UUID, amount float64, orderID *uuid.UUID, description string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return l.post(userID, models.WalletTxnRefund, amount, description, orderID, "", "")
}

// post applies a signed amount to the wallet and writes the paired
// transaction row under a row lock.
func (l *WalletLedger) post(userID uuid.UUID, txnType string, signedAmount float64, description string, orderID *uuid.UUID, gatewayTxnID, gatewayProvider string) (*models.WalletTransaction, error) {
	if signedAmount == 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := l.GetOrCreateWallet(userID); err != nil {
		return nil, err
	}

	var txn *models.WalletTransaction
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			return err
		}

		if signedAmount < 0 && wallet.Balance+signedAmount < 0 {
			return ErrInsufficientBalance
		}

		before := wallet.Balance
		wallet.Balance = round2(wallet.Balance + signedAmount)
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}

		txn = &models.WalletTransaction{
			WalletID:        wallet.ID,
			Type:            txnType,
			Amount:          round2(signedAmount),
			BalanceBefore:   before,
			BalanceAfter:    wallet.Balance,
			Description:     description,
			OrderID:         orderID,
			GatewayTxnID:    gatewayTxnID,
			GatewayProvider: gatewayProvider,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transactions returns the wallet's transactions, newest first.
func (l *WalletLedger) Transactions(walletID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	query := l.DB.Where("wallet_id = ?", walletID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
