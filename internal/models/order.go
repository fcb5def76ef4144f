package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderNumber string          `json:"order_number" gorm:"unique;not null"`
	CustomerID  uint            `json:"customer_id" gorm:"not null;index"`
	Status      OrderStatus     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Observation string          `json:"observation" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"deleted_at" gorm:"index"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderSeparated OrderStatus = "separated"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

// statusTransitions is the full lifecycle table. Delivered and canceled are
// terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCanceled},
	OrderConfirmed: {OrderSeparated, OrderCanceled},
	OrderSeparated: {OrderShipped},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {},
	OrderCanceled:  {},
}

// IsValid reports whether s is one of the recognized order statuses.
func (s OrderStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
