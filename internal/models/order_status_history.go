package models

import "time"

// OrderStatusHistory is an immutable audit row. Rows are only ever appended;
// OldStatus is nil for the order's creation entry.
type OrderStatusHistory struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	OrderID     uint         `json:"order_id" gorm:"not null;index"`
	OldStatus   *OrderStatus `json:"old_status" gorm:"type:varchar(20)"`
	NewStatus   OrderStatus  `json:"new_status" gorm:"type:varchar(20);not null"`
	UserID      *uint        `json:"user_id"`
	Observation string       `json:"observation" gorm:"type:text"`
	ChangedAt   time.Time    `json:"changed_at" gorm:"autoCreateTime"`
}
