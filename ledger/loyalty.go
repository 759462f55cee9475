package ledger

import (
	"fmt"

	"aroi-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Earning and redemption both use a 10:1 ratio: 1 point per 10 THB
// spent, 10 points per 1 THB of discount. Earning floors to whole
// points; redemption converts exactly (125 points -> 12.50 THB).
const pointsRatio = 10

// LoyaltyLedger posts point transactions against per-user loyalty
// accounts. Every balance mutation and its audit row commit in the same
// database transaction, with the account row locked for the duration.
type LoyaltyLedger struct {
	DB *gorm.DB
}

// RedeemResult is returned from Redeem.
type RedeemResult struct {
	PointsRedeemed  int     `json:"points_redeemed"`
	DiscountAmount  float64 `json:"discount_amount"`
	RemainingPoints int     `json:"remaining_points"`
}

// GetOrCreateAccount returns the user's loyalty account, creating it
// with zero balances and BRONZE tier on first access.
func (l *LoyaltyLedger) GetOrCreateAccount(userID uuid.UUID) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	if err := l.DB.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		account = models.LoyaltyAccount{
			UserID: userID,
			Tier:   models.TierBronze,
		}
		if cerr := l.DB.Create(&account).Error; cerr != nil {
			// A concurrent first access can win the insert; the unique
			// index on user_id fails ours, so re-read the winner's row.
			if rerr := l.DB.Where("user_id = ?", userID).First(&account).Error; rerr != nil {
				return nil, cerr
			}
		}
	}
	return &account, nil
}

// EarnPoints computes floor(orderAmount/10) points for an order and
// posts an EARNED transaction. An order small enough to earn zero
// points mutates nothing and returns nil.
func (l *LoyaltyLedger) EarnPoints(userID uuid.UUID, orderAmount float64, orderID *uuid.UUID, description string) (*models.PointTransaction, error) {
	if orderAmount < 0 {
		return nil, ErrInvalidAmount
	}
	points := int(orderAmount / pointsRatio)
	if points == 0 {
		return nil, nil
	}

	if _, err := l.GetOrCreateAccount(userID); err != nil {
		return nil, err
	}

	var txn *models.PointTransaction
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var account models.LoyaltyAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&account).Error; err != nil {
			return err
		}

		before := account.Points
		account.Points += points
		account.TotalEarned += points
		account.Tier = models.TierForTotalEarned(account.TotalEarned)
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		txn = &models.PointTransaction{
			AccountID:     account.ID,
			Type:          models.PointsEarned,
			Points:        points,
			BalanceBefore: before,
			BalanceAfter:  account.Points,
			Description:   description,
			OrderID:       orderID,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RedeemPoints converts points into a discount amount. The balance
// check, mutation and audit row run under a row lock in one
// transaction, so concurrent redemptions cannot drive the balance
// negative.
func (l *LoyaltyLedger) RedeemPoints(userID uuid.UUID, points int) (*RedeemResult, error) {
	if points <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *RedeemResult
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var account models.LoyaltyAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&account).Error; err != nil {
			return err
		}

		if points > account.Points {
			return ErrInsufficientPoints
		}

		before := account.Points
		account.Points -= points
		account.TotalSpent += points
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		txn := &models.PointTransaction{
			AccountID:     account.ID,
			Type:          models.PointsRedeemed,
			Points:        -points,
			BalanceBefore: before,
			BalanceAfter:  account.Points,
			Description:   fmt.Sprintf("Redeemed %d points", points),
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		result = &RedeemResult{
			PointsRedeemed:  points,
			DiscountAmount:  float64(points) / pointsRatio,
			RemainingPoints: account.Points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// History returns the account's point transactions, newest first.
func (l *LoyaltyLedger) History(accountID uuid.UUID, limit int) ([]models.PointTransaction, error) {
	var txns []models.PointTransaction
	query := l.DB.Where("account_id = ?", accountID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
