package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	Document  string         `json:"document" gorm:"unique;not null;index"`
	Email     string         `json:"email" gorm:"unique;not null"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address" gorm:"type:text"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
