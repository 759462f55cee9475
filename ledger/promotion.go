package ledger

import (
	"math"
	"strings"
	"time"

	"aroi-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromotionQuote is the result of evaluating a promo code against an
// order subtotal. FreeDelivery promos carry no monetary discount; the
// caller waives the delivery fee instead.
type PromotionQuote struct {
	Discount     float64
	FreeDelivery bool
	Promotion    *models.Promotion
}

// round2 rounds to 2 decimal places, half-up at cent granularity.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EvaluatePromotion checks a promotion against the time window, usage cap
// and minimum order, then computes the discount. It is pure and has no
// side effects, so it is safe to call repeatedly for quoting. Consuming
// a use is a separate step (ConsumePromotion), performed once per
// confirmed order.
func EvaluatePromotion(p *models.Promotion, subtotal float64, now time.Time) (PromotionQuote, error) {
	if now.Before(p.StartDate) {
		return PromotionQuote{}, ErrPromotionNotStarted
	}
	if now.After(p.EndDate) {
		return PromotionQuote{}, ErrPromotionExpired
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return PromotionQuote{}, ErrPromotionUsageLimit
	}
	if subtotal < p.MinimumOrder {
		return PromotionQuote{}, &MinimumOrderError{Minimum: p.MinimumOrder}
	}

	quote := PromotionQuote{Promotion: p}
	switch p.Type {
	case models.PromotionPercentage:
		discount := subtotal * p.DiscountValue / 100
		if p.MaxDiscount != nil && discount > *p.MaxDiscount {
			discount = *p.MaxDiscount
		}
		quote.Discount = round2(discount)
	case models.PromotionFixedAmount:
		discount := p.DiscountValue
		if discount > subtotal {
			discount = subtotal
		}
		quote.Discount = round2(discount)
	case models.PromotionFreeDelivery:
		quote.FreeDelivery = true
	}
	return quote, nil
}

// FindPromotionByCode looks up an active promotion by its uppercased
// code. A miss is reported as ErrInvalidPromoCode, same as an inactive
// promotion.
func FindPromotionByCode(db *gorm.DB, code string) (*models.Promotion, error) {
	var promo models.Promotion
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := db.Where("code = ? AND is_active = ?", code, true).First(&promo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidPromoCode
		}
		return nil, err
	}
	return &promo, nil
}

// QuotePromotion resolves a promo code and evaluates it. An empty code
// yields a zero quote with no error, since promotions are optional.
func QuotePromotion(db *gorm.DB, code string, subtotal float64, now time.Time) (PromotionQuote, error) {
	if strings.TrimSpace(code) == "" {
		return PromotionQuote{}, nil
	}
	promo, err := FindPromotionByCode(db, code)
	if err != nil {
		return PromotionQuote{}, err
	}
	return EvaluatePromotion(promo, subtotal, now)
}

// ConsumePromotion records one redemption as a single conditional
// update, so the usage-limit check and the increment cannot race. Zero
// rows affected means another redemption won the last slot (or the
// promotion vanished); both are reported as the limit being reached.
func ConsumePromotion(db *gorm.DB, promotionID uuid.UUID) error {
	res := db.Model(&models.Promotion{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", promotionID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPromotionUsageLimit
	}
	return nil
}
