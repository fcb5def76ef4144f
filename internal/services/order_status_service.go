package services

import (
	"context"
	"log"
	"time"

	"order_manager/internal/events"
	"order_manager/internal/models"
	"order_manager/internal/repository"
)

type OrderStatusService interface {
	// UpdateStatus moves an order through its lifecycle. Same-status calls
	// are idempotent no-ops that write no history. Cancellation restores
	// the reserved stock atomically with the status flip.
	UpdateStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus, userID *uint, observation string) (*models.Order, error)
	Cancel(ctx context.Context, orderID uint, userID *uint, observation string) (*models.Order, error)
}

type orderStatusService struct {
	txm       repository.TxManager
	publisher events.Publisher
}

func NewOrderStatusService(txm repository.TxManager, publisher events.Publisher) OrderStatusService {
	return &orderStatusService{txm: txm, publisher: publisher}
}

func (s *orderStatusService) UpdateStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus, userID *uint, observation string) (*models.Order, error) {
	var updated *models.Order
	var event *events.StatusChangedEvent

	err := s.txm.InTx(ctx, func(tx repository.Store) error {
		// The row lock serializes concurrent transitions on the same order.
		order, err := tx.Orders().LockByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return models.ErrOrderNotFound
		}

		if order.Status == newStatus {
			updated = order
			return nil
		}
		if !newStatus.IsValid() {
			return models.ErrUnknownStatus
		}
		if !order.Status.CanTransitionTo(newStatus) {
			return models.ErrIllegalTransition
		}

		if newStatus == models.OrderCanceled {
			if err := s.restoreStock(tx, order); err != nil {
				return err
			}
		}

		oldStatus := order.Status
		order.Status = newStatus
		if err := tx.Orders().Update(order); err != nil {
			return err
		}

		entry := &models.OrderStatusHistory{
			OrderID:     order.ID,
			OldStatus:   &oldStatus,
			NewStatus:   newStatus,
			UserID:      userID,
			Observation: observation,
			ChangedAt:   time.Now(),
		}
		if err := tx.Orders().AppendHistory(entry); err != nil {
			return err
		}

		updated = order
		event = &events.StatusChangedEvent{
			OrderID:   order.ID,
			OldStatus: &oldStatus,
			NewStatus: newStatus,
			Timestamp: entry.ChangedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event != nil {
		if err := s.publisher.StatusChanged(ctx, *event); err != nil {
			log.Printf("Warning: failed to publish status event for order %d: %v", orderID, err)
		}
	}
	return updated, nil
}

func (s *orderStatusService) Cancel(ctx context.Context, orderID uint, userID *uint, observation string) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, models.OrderCanceled, userID, observation)
}

// restoreStock reverses the reservation made at creation, inside the same
// transaction that flips the status to canceled.
func (s *orderStatusService) restoreStock(tx repository.Store, order *models.Order) error {
	productIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	if _, err := tx.Ledger().AcquireExclusive(productIDs); err != nil {
		return err
	}
	for _, item := range order.Items {
		if err := tx.Ledger().Increment(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
