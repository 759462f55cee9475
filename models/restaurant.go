package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Restaurant struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name            string         `gorm:"not null" json:"name"`
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID         *uuid.UUID     `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Description     string         `json:"description"`
	Address         string         `json:"address"`
	City            string         `json:"city"`
	Phone           string         `json:"phone"`
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	DeliveryRadius  float64        `gorm:"default:5" json:"delivery_radius"` // km
	DeliveryFee     float64        `gorm:"default:39" json:"delivery_fee"`   // THB
	FreeDeliveryMin float64        `gorm:"default:500" json:"free_delivery_min"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	MenuItems       []MenuItem     `gorm:"foreignKey:RestaurantID" json:"menu_items,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
