package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RestaurantHandler struct {
	DB *gorm.DB
}

// ListRestaurants returns active restaurants, optionally filtered by
// city or a name search. When lat and lng are given, results are
// restricted to restaurants that deliver to that point, sorted by
// distance.
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	if c.Query("lat") != "" && c.Query("lng") != "" {
		h.NearbyRestaurants(c)
		return
	}

	query := h.DB.Where("is_active = ?", true)

	if city := c.Query("city"); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	var restaurants []models.Restaurant
	if err := query.Order("name ASC").Find(&restaurants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch restaurants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

// GetRestaurant returns a restaurant by slug with its available menu.
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	slug := c.Param("slug")

	var restaurant models.Restaurant
	if err := h.DB.Preload("MenuItems", "is_available = ?", true).
		Where("slug = ? AND is_active = ?", slug, true).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

// NearbyRestaurants returns active restaurants whose delivery radius
// covers the given coordinates, sorted by distance.
func (h *RestaurantHandler) NearbyRestaurants(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	var restaurants []models.Restaurant
	if err := h.DB.Where("is_active = ?", true).Find(&restaurants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch restaurants"})
		return
	}

	type nearby struct {
		models.Restaurant
		Distance float64 `json:"distance"` // km
	}

	var result []nearby
	for _, r := range restaurants {
		d := utils.Haversine(lat, lng, r.Latitude, r.Longitude)
		if d <= r.DeliveryRadius {
			result = append(result, nearby{Restaurant: r, Distance: d})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Distance < result[j].Distance })

	c.JSON(http.StatusOK, gin.H{"restaurants": result})
}

// CreateRestaurant is admin-only. The owner account, if given, is
// linked to the new restaurant.
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	var req struct {
		Name            string     `json:"name" binding:"required"`
		Slug            string     `json:"slug" binding:"required"`
		OwnerID         *uuid.UUID `json:"owner_id"`
		Description     string     `json:"description"`
		Address         string     `json:"address"`
		City            string     `json:"city"`
		Phone           string     `json:"phone"`
		Latitude        float64    `json:"latitude"`
		Longitude       float64    `json:"longitude"`
		DeliveryRadius  *float64   `json:"delivery_radius"`
		DeliveryFee     *float64   `json:"delivery_fee"`
		FreeDeliveryMin *float64   `json:"free_delivery_min"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	restaurant := models.Restaurant{
		Name:        req.Name,
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		OwnerID:     req.OwnerID,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Phone:       req.Phone,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsActive:    true,
	}
	if req.DeliveryRadius != nil {
		restaurant.DeliveryRadius = *req.DeliveryRadius
	} else {
		restaurant.DeliveryRadius = 5
	}
	if req.DeliveryFee != nil {
		restaurant.DeliveryFee = *req.DeliveryFee
	} else {
		restaurant.DeliveryFee = 39
	}
	if req.FreeDeliveryMin != nil {
		restaurant.FreeDeliveryMin = *req.FreeDeliveryMin
	} else {
		restaurant.FreeDeliveryMin = 500
	}

	if err := h.DB.Create(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create restaurant"})
		return
	}

	if req.OwnerID != nil {
		h.DB.Model(&models.User{}).Where("id = ?", req.OwnerID).
			Updates(map[string]interface{}{"restaurant_id": restaurant.ID, "role": "restaurant_owner"})
	}

	c.JSON(http.StatusCreated, restaurant)
}

// UpdateRestaurant handles both admin edits and owner-portal edits;
// route middleware decides who reaches it.
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	id := c.Param("id")

	var restaurant models.Restaurant
	if err := h.DB.Where("id = ?", id).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	// Owners may only edit their own restaurant.
	if role, _ := c.Get("user_role"); role == "restaurant_owner" {
		restaurantID, _ := c.Get("restaurant_id")
		rid, ok := restaurantID.(*uuid.UUID)
		if !ok || rid == nil || *rid != restaurant.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage your own restaurant"})
			return
		}
	}

	var req struct {
		Name            *string  `json:"name"`
		Description     *string  `json:"description"`
		Address         *string  `json:"address"`
		City            *string  `json:"city"`
		Phone           *string  `json:"phone"`
		Latitude        *float64 `json:"latitude"`
		Longitude       *float64 `json:"longitude"`
		DeliveryRadius  *float64 `json:"delivery_radius"`
		DeliveryFee     *float64 `json:"delivery_fee"`
		FreeDeliveryMin *float64 `json:"free_delivery_min"`
		IsActive        *bool    `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.DeliveryRadius != nil {
		updates["delivery_radius"] = *req.DeliveryRadius
	}
	if req.DeliveryFee != nil {
		updates["delivery_fee"] = *req.DeliveryFee
	}
	if req.FreeDeliveryMin != nil {
		updates["free_delivery_min"] = *req.FreeDeliveryMin
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&restaurant).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update restaurant"})
			return
		}
	}

	h.DB.Where("id = ?", id).First(&restaurant)
	c.JSON(http.StatusOK, restaurant)
}

// DeleteRestaurant soft-deletes a restaurant (admin only).
func (h *RestaurantHandler) DeleteRestaurant(c *gin.Context) {
	id := c.Param("id")

	var restaurant models.Restaurant
	if err := h.DB.Where("id = ?", id).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	if err := h.DB.Delete(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete restaurant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// GetMyRestaurant returns the owner's restaurant for the portal.
func (h *RestaurantHandler) GetMyRestaurant(c *gin.Context) {
	restaurantID, exists := c.Get("restaurant_id")
	if !exists {
		c.JSON(http.StatusForbidden, gin.H{"error": "No restaurant associated with this account"})
		return
	}
	rid, ok := restaurantID.(*uuid.UUID)
	if !ok || rid == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "No restaurant associated with this account"})
		return
	}

	var restaurant models.Restaurant
	if err := h.DB.Preload("MenuItems").Where("id = ?", rid).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	c.JSON(http.StatusOK, restaurant)
}
