package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionType string

const (
	PromotionPercentage   PromotionType = "PERCENTAGE"
	PromotionFixedAmount  PromotionType = "FIXED_AMOUNT"
	PromotionFreeDelivery PromotionType = "FREE_DELIVERY"
)

type Promotion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `json:"description"`
	Type          PromotionType  `gorm:"not null" json:"type"`
	DiscountValue float64        `gorm:"not null" json:"discount_value"`
	MinimumOrder  float64        `gorm:"default:0" json:"minimum_order"`
	MaxDiscount   *float64       `json:"max_discount,omitempty"` // cap for percentage promos
	UsageLimit    *int           `json:"usage_limit,omitempty"`
	UsageCount    int            `gorm:"default:0" json:"usage_count"`
	StartDate     time.Time      `gorm:"not null" json:"start_date"`
	EndDate       time.Time      `gorm:"not null" json:"end_date"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Codes are stored uppercased so lookups can be case-insensitive.
func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	return nil
}
