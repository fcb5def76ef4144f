package services

import (
	"context"
	"log"
	"time"

	"order_manager/internal/events"
	"order_manager/internal/idempotency"
	"order_manager/internal/models"
	"order_manager/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerID     uint                   `json:"customer_id"`
	Items          []CreateOrderItemInput `json:"items"`
	IdempotencyKey string                 `json:"-"`
}

type OrderService interface {
	// CreateOrder runs the full creation workflow. The returned bool is
	// false when the idempotency guard replayed a previously created order.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, bool, error)
	GetOrderByID(id uint) (*models.Order, error)
	GetAllOrders() ([]models.Order, error)
	GetOrdersByCustomer(customerID uint) ([]models.Order, error)
	GetOrderHistory(orderID uint) ([]models.OrderStatusHistory, error)
}

type orderService struct {
	txm       repository.TxManager
	orderRepo repository.OrderRepository
	guard     idempotency.Guard
	publisher events.Publisher
}

func NewOrderService(
	txm repository.TxManager,
	orderRepo repository.OrderRepository,
	guard idempotency.Guard,
	publisher events.Publisher,
) OrderService {
	return &orderService{txm: txm, orderRepo: orderRepo, guard: guard, publisher: publisher}
}

func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, bool, error) {
	// A recorded key short-circuits everything: no validation, no locking,
	// no writes. The retry gets the original outcome back.
	if input.IdempotencyKey != "" {
		orderID, found, err := s.guard.Lookup(ctx, input.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if found {
			order, err := s.orderRepo.GetByID(orderID)
			if err != nil {
				return nil, false, err
			}
			if order != nil {
				return order, false, nil
			}
			// Recorded order no longer exists; fall through and create anew.
		}
	}

	var created *models.Order
	err := s.txm.InTx(ctx, func(tx repository.Store) error {
		customer, err := tx.Customers().GetByID(input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return models.ErrCustomerNotFound
		}
		if !customer.IsActive {
			return models.ErrCustomerInactive
		}

		if len(input.Items) == 0 {
			return models.ErrEmptyOrder
		}
		productIDs := make([]uint, 0, len(input.Items))
		for _, item := range input.Items {
			if item.Quantity < 1 {
				return models.ErrInvalidQuantity
			}
			productIDs = append(productIDs, item.ProductID)
		}

		// Lock the distinct product set in one call; the ledger owns the
		// acquisition order.
		snapshot, err := tx.Ledger().AcquireExclusive(productIDs)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		total := decimal.Zero
		for _, in := range input.Items {
			product, ok := snapshot[in.ProductID]
			if !ok {
				return models.ErrProductNotFound
			}
			if !product.IsActive {
				return models.ErrProductInactive
			}
			if product.StockQuantity < in.Quantity {
				return models.ErrInsufficientStock
			}
			item := models.NewOrderItem(product.ID, in.Quantity, product.Price)
			items = append(items, item)
			total = total.Add(item.Subtotal)
		}

		for _, item := range items {
			if err := tx.Ledger().Decrement(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order := &models.Order{
			OrderNumber: uuid.NewString(),
			CustomerID:  customer.ID,
			Status:      models.OrderPending,
			TotalAmount: total,
			Items:       items,
		}
		if err := tx.Orders().Create(order); err != nil {
			return err
		}

		entry := &models.OrderStatusHistory{
			OrderID:   order.ID,
			NewStatus: models.OrderPending,
			ChangedAt: time.Now(),
		}
		if err := tx.Orders().AppendHistory(entry); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	// The order is durable at this point. Failing the request now would
	// only provoke a retry that creates a duplicate, so post-commit
	// bookkeeping is logged instead of returned.
	if input.IdempotencyKey != "" {
		if err := s.guard.Record(ctx, input.IdempotencyKey, created.ID); err != nil {
			log.Printf("Warning: failed to record idempotency key for order %d: %v", created.ID, err)
		}
	}
	if err := s.publisher.StatusChanged(ctx, events.StatusChangedEvent{
		OrderID:   created.ID,
		NewStatus: models.OrderPending,
		Timestamp: time.Now(),
	}); err != nil {
		log.Printf("Warning: failed to publish creation event for order %d: %v", created.ID, err)
	}

	return created, true, nil
}

func (s *orderService) GetOrderByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

func (s *orderService) GetOrdersByCustomer(customerID uint) ([]models.Order, error) {
	return s.orderRepo.GetByCustomerID(customerID)
}

func (s *orderService) GetOrderHistory(orderID uint) ([]models.OrderStatusHistory, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.ErrOrderNotFound
	}
	return s.orderRepo.GetHistory(orderID)
}
