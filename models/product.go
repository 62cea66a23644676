package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry orders are built from.
type Product struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	SKU         string  `gorm:"uniqueIndex;not null" json:"sku"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null;default:0" json:"price"`
	Active      bool    `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
