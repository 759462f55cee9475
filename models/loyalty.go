package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "BRONZE"
	TierSilver   LoyaltyTier = "SILVER"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
	TierDiamond  LoyaltyTier = "DIAMOND"
)

const (
	PointsEarned   = "EARNED"
	PointsRedeemed = "REDEEMED"
)

type LoyaltyAccount struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Points      int            `gorm:"default:0" json:"points"`
	TotalEarned int            `gorm:"default:0" json:"total_earned"`
	TotalSpent  int            `gorm:"default:0" json:"total_spent"`
	Tier        LoyaltyTier    `gorm:"default:BRONZE" json:"tier"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *LoyaltyAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// PointTransaction is an append-only audit record. Every change to an
// account's points balance writes exactly one of these in the same
// database transaction.
type PointTransaction struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	Account       LoyaltyAccount `gorm:"foreignKey:AccountID" json:"-"`
	Type          string         `gorm:"not null" json:"type"` // EARNED or REDEEMED
	Points        int            `gorm:"not null" json:"points"` // signed delta
	BalanceBefore int            `gorm:"not null" json:"balance_before"`
	BalanceAfter  int            `gorm:"not null" json:"balance_after"`
	Description   string         `json:"description"`
	OrderID       *uuid.UUID     `gorm:"type:uuid" json:"order_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (t *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TierBenefit describes the static perks attached to a loyalty tier.
type TierBenefit struct {
	DiscountPercent float64 `json:"discount_percent"`
	PointMultiplier float64 `json:"point_multiplier"`
	FreeDelivery    bool    `json:"free_delivery"`
}

var TierBenefits = map[LoyaltyTier]TierBenefit{
	TierBronze:   {DiscountPercent: 0, PointMultiplier: 1, FreeDelivery: false},
	TierSilver:   {DiscountPercent: 5, PointMultiplier: 1.2, FreeDelivery: false},
	TierGold:     {DiscountPercent: 10, PointMultiplier: 1.5, FreeDelivery: true},
	TierPlatinum: {DiscountPercent: 15, PointMultiplier: 2, FreeDelivery: true},
	TierDiamond:  {DiscountPercent: 20, PointMultiplier: 3, FreeDelivery: true},
}

// TierForTotalEarned maps lifetime earned points to a tier. Redeeming
// points never lowers a tier because the mapping only looks at
// total_earned.
func TierForTotalEarned(totalEarned int) LoyaltyTier {
	switch {
	case totalEarned >= 50000:
		return TierDiamond
	case totalEarned >= 15000:
		return TierPlatinum
	case totalEarned >= 5000:
		return TierGold
	case totalEarned >= 1000:
		return TierSilver
	default:
		return TierBronze
	}
}
