package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is created once at order creation and never edited afterwards.
// UnitPrice snapshots the product price at purchase time.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewOrderItem builds a line item with the price snapshot and a freshly
// computed subtotal.
func NewOrderItem(productID uint, quantity int, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
