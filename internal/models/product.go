package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	SKU           string          `json:"sku" gorm:"unique;not null;index"`
	Name          string          `json:"name" gorm:"not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0"`
	IsActive      bool            `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}
