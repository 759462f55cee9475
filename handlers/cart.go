package handlers

import (
	"net/http"

	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartHandler struct {
	DB *gorm.DB
}

// GetCart returns the user's cart items with a computed subtotal.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var items []models.CartItem
	if err := h.DB.Preload("MenuItem").Where("user_id = ?", userID).
		Order("created_at ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.MenuItem.Price * float64(item.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"subtotal": subtotal,
	})
}

// AddToCart adds a menu item to the cart. A cart holds items from one
// restaurant at a time; adding from a different restaurant clears the
// existing cart first.
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	var req struct {
		MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
		Quantity   int       `json:"quantity" binding:"required,gt=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var menuItem models.MenuItem
	if err := h.DB.Where("id = ? AND is_available = ?", req.MenuItemID, true).First(&menuItem).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found or unavailable"})
		return
	}

	var existing []models.CartItem
	h.DB.Where("user_id = ?", uid).Find(&existing)

	if len(existing) > 0 && existing[0].RestaurantID != menuItem.RestaurantID {
		// Switching restaurants replaces the cart.
		h.DB.Where("user_id = ?", uid).Delete(&models.CartItem{})
		existing = nil
	}

	for _, item := range existing {
		if item.MenuItemID == req.MenuItemID {
			item.Quantity += req.Quantity
			if err := h.DB.Save(&item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
				return
			}
			c.JSON(http.StatusOK, item)
			return
		}
	}

	cartItem := models.CartItem{
		UserID:       uid,
		MenuItemID:   req.MenuItemID,
		RestaurantID: menuItem.RestaurantID,
		Quantity:     req.Quantity,
	}

	if err := h.DB.Create(&cartItem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to cart"})
		return
	}

	c.JSON(http.StatusCreated, cartItem)
}

// UpdateCartItem changes an item's quantity; zero removes it.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, _ := c.Get("user_id")
	id := c.Param("id")

	var req struct {
		Quantity int `json:"quantity" binding:"gte=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	if req.Quantity == 0 {
		h.DB.Delete(&item)
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
		return
	}

	item.Quantity = req.Quantity
	if err := h.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// RemoveCartItem deletes a single cart line.
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	userID, _ := c.Get("user_id")
	id := c.Param("id")

	res := h.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{})
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart empties the user's cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, _ := c.Get("user_id")
	h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{})
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
