package handlers

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"aroi-backend/ledger"
	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB *gorm.DB
}

// promoStatus maps a promotion evaluation error to an HTTP status.
// Client mistakes (bad code, below minimum) are 400s; everything else
// is a server error.
func promoStatus(err error) int {
	var minErr *ledger.MinimumOrderError
	switch {
	case errors.Is(err, ledger.ErrInvalidPromoCode),
		errors.Is(err, ledger.ErrPromotionNotStarted),
		errors.Is(err, ledger.ErrPromotionExpired),
		errors.Is(err, ledger.ErrPromotionUsageLimit),
		errors.As(err, &minErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateOrder checks out the user's cart: quote the promotion, price
// delivery, charge the wallet when selected, consume the promotion and
// clear the cart — all in one transaction. Loyalty points are earned
// after the order commits; a failure there never fails the order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	var req struct {
		DeliveryAddress string   `json:"delivery_address" binding:"required"`
		PaymentMethod   string   `json:"payment_method" binding:"required,oneof=cash card wallet"`
		PromoCode       string   `json:"promo_code"`
		CustomerLat     *float64 `json:"customer_lat"`
		CustomerLng     *float64 `json:"customer_lng"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var cartItems []models.CartItem
	if err := h.DB.Preload("MenuItem").Where("user_id = ?", uid).Find(&cartItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		return
	}

	var restaurant models.Restaurant
	if err := h.DB.Where("id = ? AND is_active = ?", cartItems[0].RestaurantID, true).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Restaurant is not available"})
		return
	}

	var subtotal float64
	for _, item := range cartItems {
		if !item.MenuItem.IsAvailable {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is no longer available", item.MenuItem.Name)})
			return
		}
		subtotal += item.MenuItem.Price * float64(item.Quantity)
	}
	subtotal = math.Round(subtotal*100) / 100

	quote, err := ledger.QuotePromotion(h.DB, req.PromoCode, subtotal, time.Now())
	if err != nil {
		c.JSON(promoStatus(err), gin.H{"error": err.Error()})
		return
	}

	deliveryFee := restaurant.DeliveryFee
	if quote.FreeDelivery || subtotal >= restaurant.FreeDeliveryMin {
		deliveryFee = 0
	}

	total := math.Round((subtotal+deliveryFee-quote.Discount)*100) / 100
	if total < 0 {
		total = 0
	}

	order := models.Order{
		UserID:          uid,
		RestaurantID:    restaurant.ID,
		Status:          models.OrderStatusPending,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		Discount:        quote.Discount,
		Total:           total,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		CustomerLat:     req.CustomerLat,
		CustomerLng:     req.CustomerLng,
	}
	if quote.Promotion != nil {
		order.PromotionID = &quote.Promotion.ID
		order.PromotionCode = quote.Promotion.Code
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, item := range cartItems {
			orderItem := models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: item.MenuItemID,
				ItemName:   item.MenuItem.Name,
				Quantity:   item.Quantity,
				Price:      item.MenuItem.Price,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}

		if quote.Promotion != nil {
			if err := ledger.ConsumePromotion(tx, quote.Promotion.ID); err != nil {
				return err
			}
		}

		if req.PaymentMethod == "wallet" && order.Total > 0 {
			wl := &ledger.WalletLedger{DB: tx}
			if _, err := wl.Debit(uid, order.Total, &order.ID, "Payment for order "+order.OrderNumber); err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", uid).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrPromotionUsageLimit):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	// Best-effort loyalty earn after the order committed.
	ll := &ledger.LoyaltyLedger{DB: h.DB}
	if txn, err := ll.EarnPoints(uid, order.Total, &order.ID, "Points earned from order "+order.OrderNumber); err != nil {
		log.Printf("Failed to award points for order %s: %v", order.OrderNumber, err)
	} else if txn != nil {
		order.PointsEarned = txn.Points
		h.DB.Model(&models.Order{}).Where("id = ?", order.ID).UpdateColumn("points_earned", txn.Points)
	}

	var user models.User
	if err := h.DB.Where("id = ?", uid).First(&user).Error; err == nil {
		utils.SendOrderConfirmation(user.Email, user.Name, order.OrderNumber, order.Total)
	}

	h.DB.Preload("Items").Preload("Restaurant").Where("id = ?", order.ID).First(&order)
	c.JSON(http.StatusCreated, order)
}

// GetOrders returns the caller's orders. Restaurant owners see their
// restaurant's orders, drivers their assigned deliveries, admins all.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("user_role")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.DB.Model(&models.Order{})

	switch role {
	case "admin":
		// no scoping
	case "restaurant_owner":
		restaurantID, _ := c.Get("restaurant_id")
		rid, ok := restaurantID.(*uuid.UUID)
		if !ok || rid == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "No restaurant associated with this account"})
			return
		}
		query = query.Where("restaurant_id = ?", rid)
	case "driver":
		query = query.Where("driver_id = ?", userID)
	default:
		query = query.Where("user_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var orders []models.Order
	if err := query.Preload("Items").Preload("Restaurant").
		Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetOrder returns one order, enforcing the same role scoping as
// GetOrders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("user_role")
	id := c.Param("id")

	var order models.Order
	if err := h.DB.Preload("Items").Preload("Restaurant").Preload("User").
		Where("id = ?", id).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	switch role {
	case "admin":
	case "restaurant_owner":
		restaurantID, _ := c.Get("restaurant_id")
		rid, ok := restaurantID.(*uuid.UUID)
		if !ok || rid == nil || *rid != order.RestaurantID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	case "driver":
		if order.DriverID == nil || *order.DriverID != userID.(uuid.UUID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	default:
		if order.UserID != userID.(uuid.UUID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order through the status state machine.
// Cancelling a wallet-paid order refunds the wallet.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("user_role")
	id := c.Param("id")

	var req struct {
		Status   models.OrderStatus `json:"status" binding:"required"`
		DriverID *uuid.UUID         `json:"driver_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var order models.Order
	if err := h.DB.Where("id = ?", id).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	switch role {
	case "admin":
	case "restaurant_owner":
		restaurantID, _ := c.Get("restaurant_id")
		rid, ok := restaurantID.(*uuid.UUID)
		if !ok || rid == nil || *rid != order.RestaurantID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	case "driver":
		if order.DriverID == nil || *order.DriverID != userID.(uuid.UUID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		// Drivers only advance delivery states.
		if req.Status != models.OrderStatusDelivered && req.Status != models.OrderStatusOutForDelivery {
			c.JSON(http.StatusForbidden, gin.H{"error": "Drivers can only update delivery status"})
			return
		}
	default:
		// Customers may only cancel their own pending orders.
		if order.UserID != userID.(uuid.UUID) || req.Status != models.OrderStatusCancelled {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	}

	if !models.IsValidTransition(order.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Cannot change status from %s to %s", order.Status, req.Status),
		})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": req.Status}
		if req.DriverID != nil {
			updates["driver_id"] = req.DriverID
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if req.Status == models.OrderStatusCancelled && order.PaymentMethod == "wallet" && order.Total > 0 {
			wl := &ledger.WalletLedger{DB: tx}
			_, err := wl.Refund(order.UserID, order.Total, &order.ID, "Refund for cancelled order "+order.OrderNumber)
			return err
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", order.UserID).First(&user).Error; err == nil {
		utils.SendOrderStatusUpdate(user.Email, user.Name, order.OrderNumber, string(req.Status))
	}

	h.DB.Preload("Items").Where("id = ?", id).First(&order)
	c.JSON(http.StatusOK, order)
}

// GetAdminDashboard returns aggregate stats for the admin console.
func (h *OrderHandler) GetAdminDashboard(c *gin.Context) {
	var totalOrders int64
	var totalUsers int64
	var totalRestaurants int64
	var pendingOrders int64
	var revenue struct {
		Total float64
	}

	h.DB.Model(&models.Order{}).Count(&totalOrders)
	h.DB.Model(&models.User{}).Count(&totalUsers)
	h.DB.Model(&models.Restaurant{}).Count(&totalRestaurants)
	h.DB.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&pendingOrders)
	h.DB.Model(&models.Order{}).Where("status = ?", models.OrderStatusDelivered).
		Select("COALESCE(SUM(total), 0) as total").Scan(&revenue)

	var recentOrders []models.Order
	h.DB.Preload("Restaurant").Order("created_at DESC").Limit(10).Find(&recentOrders)

	c.JSON(http.StatusOK, gin.H{
		"total_orders":      totalOrders,
		"total_users":       totalUsers,
		"total_restaurants": totalRestaurants,
		"pending_orders":    pendingOrders,
		"total_revenue":     revenue.Total,
		"recent_orders":     recentOrders,
	})
}
