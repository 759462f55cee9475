package handlers

import (
	"net/http"
	"time"

	"aroi-backend/ledger"
	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PromotionHandler struct {
	DB *gorm.DB
}

// ValidatePromotion quotes a promo code against a subtotal without
// consuming a use. Checkout re-evaluates and consumes atomically.
func (h *PromotionHandler) ValidatePromotion(c *gin.Context) {
	var req struct {
		Code     string  `json:"code" binding:"required"`
		Subtotal float64 `json:"subtotal" binding:"required,gt=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	quote, err := ledger.QuotePromotion(h.DB, req.Code, req.Subtotal, time.Now())
	if err != nil {
		c.JSON(promoStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discount":       quote.Discount,
		"free_delivery":  quote.FreeDelivery,
		"promotion_id":   quote.Promotion.ID,
		"promotion_code": quote.Promotion.Code,
		"promotion_name": quote.Promotion.Name,
	})
}

// ListPromotions returns all promotions for the admin console.
func (h *PromotionHandler) ListPromotions(c *gin.Context) {
	var promotions []models.Promotion
	query := h.DB.Order("created_at DESC")

	if active := c.Query("active"); active == "true" {
		now := time.Now()
		query = query.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now)
	}

	if err := query.Find(&promotions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch promotions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promotions": promotions})
}

func (h *PromotionHandler) GetPromotion(c *gin.Context) {
	id := c.Param("id")

	var promotion models.Promotion
	if err := h.DB.Where("id = ?", id).First(&promotion).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Promotion not found"})
		return
	}

	c.JSON(http.StatusOK, promotion)
}

func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var req struct {
		Code          string               `json:"code" binding:"required"`
		Name          string               `json:"name" binding:"required"`
		Description   string               `json:"description"`
		Type          models.PromotionType `json:"type" binding:"required,oneof=PERCENTAGE FIXED_AMOUNT FREE_DELIVERY"`
		DiscountValue float64              `json:"discount_value"`
		MinimumOrder  float64              `json:"minimum_order"`
		MaxDiscount   *float64             `json:"max_discount"`
		UsageLimit    *int                 `json:"usage_limit"`
		StartDate     time.Time            `json:"start_date" binding:"required"`
		EndDate       time.Time            `json:"end_date" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Type == models.PromotionPercentage && (req.DiscountValue <= 0 || req.DiscountValue > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percentage discount must be between 0 and 100"})
		return
	}
	if req.Type == models.PromotionFixedAmount && req.DiscountValue <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Discount amount must be greater than zero"})
		return
	}
	if !req.EndDate.After(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must be after start date"})
		return
	}

	promotion := models.Promotion{
		Code:          req.Code,
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		DiscountValue: req.DiscountValue,
		MinimumOrder:  req.MinimumOrder,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
	}

	if err := h.DB.Create(&promotion).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A promotion with this code already exists"})
		return
	}

	c.JSON(http.StatusCreated, promotion)
}

func (h *PromotionHandler) UpdatePromotion(c *gin.Context) {
	id := c.Param("id")

	var promotion models.Promotion
	if err := h.DB.Where("id = ?", id).First(&promotion).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Promotion not found"})
		return
	}

	var req struct {
		Name          *string    `json:"name"`
		Description   *string    `json:"description"`
		DiscountValue *float64   `json:"discount_value"`
		MinimumOrder  *float64   `json:"minimum_order"`
		MaxDiscount   *float64   `json:"max_discount"`
		UsageLimit    *int       `json:"usage_limit"`
		StartDate     *time.Time `json:"start_date"`
		EndDate       *time.Time `json:"end_date"`
		IsActive      *bool      `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.DiscountValue != nil && promotion.Type == models.PromotionPercentage &&
		(*req.DiscountValue <= 0 || *req.DiscountValue > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percentage discount must be between 0 and 100"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DiscountValue != nil {
		updates["discount_value"] = *req.DiscountValue
	}
	if req.MinimumOrder != nil {
		updates["minimum_order"] = *req.MinimumOrder
	}
	if req.MaxDiscount != nil {
		updates["max_discount"] = *req.MaxDiscount
	}
	if req.UsageLimit != nil {
		updates["usage_limit"] = *req.UsageLimit
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&promotion).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update promotion"})
			return
		}
	}

	h.DB.Where("id = ?", id).First(&promotion)
	c.JSON(http.StatusOK, promotion)
}

func (h *PromotionHandler) DeletePromotion(c *gin.Context) {
	id := c.Param("id")

	var promotion models.Promotion
	if err := h.DB.Where("id = ?", id).First(&promotion).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Promotion not found"})
		return
	}

	if err := h.DB.Delete(&promotion).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete promotion"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Promotion deleted"})
}
