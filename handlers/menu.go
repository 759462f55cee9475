package handlers

import (
	"net/http"

	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MenuHandler struct {
	DB *gorm.DB
}

// ownerRestaurantID extracts the caller's restaurant from the auth
// context and rejects edits against other restaurants. Admins pass for
// any restaurant.
func ownerRestaurantID(c *gin.Context, target uuid.UUID) bool {
	if role, _ := c.Get("user_role"); role == "admin" {
		return true
	}
	restaurantID, exists := c.Get("restaurant_id")
	if !exists {
		return false
	}
	rid, ok := restaurantID.(*uuid.UUID)
	return ok && rid != nil && *rid == target
}

// ListMenuBySlug returns a restaurant's menu by the restaurant slug,
// grouped by category.
func (h *MenuHandler) ListMenuBySlug(c *gin.Context) {
	slug := c.Param("slug")

	var restaurant models.Restaurant
	if err := h.DB.Where("slug = ? AND is_active = ?", slug, true).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var items []models.MenuItem
	query := h.DB.Where("restaurant_id = ?", restaurant.ID)
	if c.Query("include_unavailable") != "true" {
		query = query.Where("is_available = ?", true)
	}
	if err := query.Order("category ASC, name ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch menu"})
		return
	}

	grouped := map[string][]models.MenuItem{}
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = "Other"
		}
		grouped[category] = append(grouped[category], item)
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "by_category": grouped})
}

func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var req struct {
		RestaurantID uuid.UUID `json:"restaurant_id" binding:"required"`
		Name         string    `json:"name" binding:"required"`
		Description  string    `json:"description"`
		Category     string    `json:"category"`
		Price        float64   `json:"price" binding:"required,gt=0"`
		ImageURL     string    `json:"image_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if !ownerRestaurantID(c, req.RestaurantID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage your own restaurant's menu"})
		return
	}

	item := models.MenuItem{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		IsAvailable:  true,
	}

	if err := h.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	id := c.Param("id")

	var item models.MenuItem
	if err := h.DB.Where("id = ?", id).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	if !ownerRestaurantID(c, item.RestaurantID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage your own restaurant's menu"})
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Price       *float64 `json:"price"`
		ImageURL    *string  `json:"image_url"`
		IsAvailable *bool    `json:"is_available"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Price != nil && *req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than zero"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&item).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update menu item"})
			return
		}
	}

	h.DB.Where("id = ?", id).First(&item)
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	id := c.Param("id")

	var item models.MenuItem
	if err := h.DB.Where("id = ?", id).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	if !ownerRestaurantID(c, item.RestaurantID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage your own restaurant's menu"})
		return
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete menu item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
