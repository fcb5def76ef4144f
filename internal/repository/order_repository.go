package repository

import (
	"errors"

	"order_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	// LockByID loads the order under an exclusive row lock. Only meaningful
	// inside a transaction; the lock is held until commit or rollback.
	LockByID(id uint) (*models.Order, error)
	Update(order *models.Order) error
	GetAll() ([]models.Order, error)
	GetByCustomerID(customerID uint) ([]models.Order, error)
	AppendHistory(entry *models.OrderStatusHistory) error
	GetHistory(orderID uint) ([]models.OrderStatusHistory, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) LockByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.db.Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(order *models.Order) error {
	// Items are immutable after creation; only the order row itself changes.
	return r.db.Omit(clause.Associations).Save(order).Error
}

func (r *orderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByCustomerID(customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("customer_id = ?", customerID).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) AppendHistory(entry *models.OrderStatusHistory) error {
	return r.db.Create(entry).Error
}

func (r *orderRepository) GetHistory(orderID uint) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := r.db.Where("order_id = ?", orderID).Order("changed_at ASC, id ASC").Find(&history).Error
	return history, err
}
