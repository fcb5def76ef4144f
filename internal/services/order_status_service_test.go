package services

import (
	"context"
	"testing"

	"order_manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createOrder(t *testing.T, items ...CreateOrderItemInput) *models.Order {
	t.Helper()
	order, _, err := e.orders.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: 1,
		Items:      items,
	})
	require.NoError(t, err)
	return order
}

func (e *testEnv) setOrderStatus(orderID uint, status models.OrderStatus) {
	e.store.state.orders[orderID].Status = status
}

func TestUpdateStatus_AppendsHistoryAndPublishes(t *testing.T) {
	env := newTestEnv()
	env.addCustomer(1, true)
	env.addProduct(1, "SKU-A", "10.00", 10, true)
	order := env.createOrder(t, CreateOrderItemInput{ProductID: 1, Quantity: 1})

	userID := uint(7)
	updated, err := env.status.UpdateStatus(
		context.Background(), order.ID, models.OrderConfirmed, &userID, "payment approved")

	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, updated.Status)

	history := env.historyOf(order.ID)
	require.Len(t, history, 2)
	entry := history[1]
	require.NotNil(t, entry.OldStatus)
	assert.Equal(t, models.OrderPending, *entry.OldStatus)
	assert.Equal(t, models.OrderConfirmed, entry.NewStatus)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	assert.Equal(t, "payment approved", entry.Observation)

	published := env.pub.published()
	require.Len(t, published, 2)
	assert.Equal(t, models.OrderConfirmed, published[1].NewStatus)
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	env := newTestEnv()
	env.addCustomer(1, true)
	env.addProduct(1, "SKU-A", "10.00", 10, true)
	order := env.createOrder(t, CreateOrderItemInput{ProductID: 1, Quantity: 1})

	updated, err := env.status.UpdateStatus(
		context.Background(), order.ID, models.OrderPending, nil, "")

	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, updated.Status)
	assert.Len(t, env.historyOf(order.ID), 1, "a no-op must not write history")
	assert.Len(t, env.pub.published(), 1, "a no-op must not publish an event")
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	env := newTestEnv()
	env.addCustomer(1, true)
	env.addProduct(1, "SKU-A", "10.00", 10, true)
	order := env.createOrder(t, CreateOrderItemInput{ProductID: 1, Quantity: 1})

	_, err := env.status.UpdateStatus(
		context.Background(), order.ID, models.OrderStatus("teleported"), nil, "")

	assert.ErrorIs(t, err, models.ErrUnknownStatus)
	assert.Len(t, env.historyOf(order.ID), 1)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.status.UpdateStatus(
		context.Background(), 404, models.OrderConfirmed, nil, "")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestUpdateStatus_RejectsEveryIllegalTransition(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:   {models.OrderConfirmed, models.OrderCanceled},
		models.OrderConfirmed: {models.OrderSeparated, models.OrderCanceled},
		models.OrderSeparated: {models.OrderShipped},
		models.OrderShipped:   {models.OrderDelivered},
		models.OrderDelivered: {},
		models.OrderCanceled:  {},
	}
	all := []models.OrderStatus{
		models.OrderPending, models.OrderConfirmed, models.OrderSeparated,
		models.OrderShipped, models.OrderDelivered, models.OrderCanceled,
	}

	for from, targets := range allowed {
		permitted := make(map[models.OrderStatus]bool)
		for _, target := range targets {
			permitted[target] = true
		}
		for _, to := range all {
			if to == from || permitted[to] {
				continue
			}
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				env := newTestEnv()
				env.addCustomer(1, true)
				env.addProduct(1, "SKU-A", "10.00", 10, true)
				order := env.createOrder(t, CreateOrderItemInput{ProductID: 1, Quantity: 1})
				env.setOrderStatus(order.ID, from)

				_, err := env.status.UpdateStatus(context.Background(), order.ID, to, nil, "")

				assert.ErrorIs(t, err, models.ErrIllegalTransition)
				assert.Len(t, env.historyOf(order.ID), 1, "a rejected transition must not write history")
			})
		}
	}
}

func TestCancel_RestoresStockExactly(t *testing.T) {
	env := newTestEnv()
	env.addCustomer(1, true)
	env.addProduct(1, "SKU-A", "10.00", 10, true)
	env.addProduct(2, "SKU-B", "20.00", 10, true)

	order := env.createOrder(t,
		CreateOrderItemInput{ProductID: 1, Quantity: 2},
		CreateOrderItemInput{ProductID: 2, Quantity: 3},
	)
	require.Equal(t, 8, env.stock(1))
	require.Equal(t, 7, env.stock(2))

	canceled, err := env.status.Cancel(context.Background(), order.ID, nil, "customer gave up")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCanceled, canceled.Status)
	assert.Equal(t, 10, env.stock(1), "cancellation must restore the reservation exactly")
	assert.Equal(t, 10, env.stock(2), "cancellation must restore the reservation exactly")

	history := env.historyOf(order.ID)
	require.Len(t, history, 2)
	require.NotNil(t, history[1].OldStatus)
	assert.Equal(t, models.OrderPending, *history[1].OldStatus)
	assert.Equal(t, models.OrderCanceled, history[1].NewStatus)
}

func TestCancel_IsTerminal(t *testing.T) {
	env := newTestEnv()
	env.addCustomer(1, true)
	env.addProduct(1, "SKU-A", "10.00", 10, true)
	order := env.createOrder(t, CreateOrderItemInput{ProductID: 1, Quantity: 4})

	_, err := env.status.Cancel(context.Background(), order.ID, nil, "")
	require.NoError(t, err)
	require.Equal(t, 10, env.stock(1))

	// A second cancel is a no-op and must not restore stock twice.
	_, err = env.status.Cancel(context.Background(), order.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 10, env.stock(1))
	assert.Len(t, env.historyOf(order.ID), 2)
}

func TestHistoryFormsContiguousChain(t *testing.T) {
	env := newTestEnv()
	env.addCustomer(1, true)
	env.addProduct(1, "SKU-A", "10.00", 10, true)
	order := env.createOrder(t, CreateOrderItemInput{ProductID: 1, Quantity: 1})

	path := []models.OrderStatus{
		models.OrderConfirmed, models.OrderSeparated, models.OrderShipped, models.OrderDelivered,
	}
	for _, next := range path {
		_, err := env.status.UpdateStatus(context.Background(), order.ID, next, nil, "")
		require.NoError(t, err)
	}

	history, err := env.orders.GetOrderHistory(order.ID)
	require.NoError(t, err)
	require.Len(t, history, len(path)+1)

	assert.Nil(t, history[0].OldStatus, "the creation entry starts the chain")
	assert.Equal(t, models.OrderPending, history[0].NewStatus)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].OldStatus)
		assert.Equal(t, history[i-1].NewStatus, *history[i].OldStatus,
			"entry %d must continue where the previous one ended", i)
		assert.True(t, history[i-1].NewStatus.CanTransitionTo(history[i].NewStatus),
			"entry %d must be a legal transition", i)
	}
}
