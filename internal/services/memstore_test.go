package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"order_manager/internal/events"
	"order_manager/internal/ledger"
	"order_manager/internal/models"
	"order_manager/internal/repository"
)

// In-memory store used by the service tests. InTx works on a deep copy of
// the state that only replaces the live state on success, so rollback
// semantics match the real transaction manager. A single mutex plays the
// role of the database's exclusive locks.

type memState struct {
	customers     map[uint]*models.Customer
	products      map[uint]*models.Product
	orders        map[uint]*models.Order
	history       map[uint][]models.OrderStatusHistory
	nextOrderID   uint
	nextItemID    uint
	nextHistoryID uint
}

func newMemState() *memState {
	return &memState{
		customers:     make(map[uint]*models.Customer),
		products:      make(map[uint]*models.Product),
		orders:        make(map[uint]*models.Order),
		history:       make(map[uint][]models.OrderStatusHistory),
		nextOrderID:   1,
		nextItemID:    1,
		nextHistoryID: 1,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextOrderID = s.nextOrderID
	c.nextItemID = s.nextItemID
	c.nextHistoryID = s.nextHistoryID
	for id, customer := range s.customers {
		copied := *customer
		c.customers[id] = &copied
	}
	for id, product := range s.products {
		copied := *product
		c.products[id] = &copied
	}
	for id, order := range s.orders {
		c.orders[id] = cloneOrder(order)
	}
	for id, entries := range s.history {
		c.history[id] = append([]models.OrderStatusHistory(nil), entries...)
	}
	return c
}

func cloneOrder(o *models.Order) *models.Order {
	copied := *o
	copied.Items = append([]models.OrderItem(nil), o.Items...)
	return &copied
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// lockCalls records the product ID sets passed to AcquireExclusive,
	// in acquisition order, for assertions on the locking discipline.
	lockCalls [][]uint
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memTx{store: m, state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// OrderRepo returns a live, non-transactional view used for reads.
func (m *memStore) OrderRepo() repository.OrderRepository {
	return &memOrderRepo{store: m}
}

type memTx struct {
	store *memStore
	state *memState
}

func (t *memTx) Customers() repository.CustomerRepository {
	return &memCustomerRepo{state: t.state}
}

func (t *memTx) Orders() repository.OrderRepository {
	return &memOrderRepo{state: t.state}
}

func (t *memTx) Ledger() ledger.Ledger {
	return &memLedger{store: t.store, state: t.state}
}

type memCustomerRepo struct {
	state *memState
}

func (r *memCustomerRepo) Create(customer *models.Customer) error {
	copied := *customer
	r.state.customers[customer.ID] = &copied
	return nil
}

func (r *memCustomerRepo) GetByID(id uint) (*models.Customer, error) {
	customer, ok := r.state.customers[id]
	if !ok {
		return nil, nil
	}
	copied := *customer
	return &copied, nil
}

func (r *memCustomerRepo) GetByDocument(document string) (*models.Customer, error) {
	for _, customer := range r.state.customers {
		if customer.Document == document {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memCustomerRepo) Update(customer *models.Customer) error {
	copied := *customer
	r.state.customers[customer.ID] = &copied
	return nil
}

func (r *memCustomerRepo) Delete(id uint) error {
	delete(r.state.customers, id)
	return nil
}

func (r *memCustomerRepo) GetAll() ([]models.Customer, error) {
	var out []models.Customer
	for _, customer := range r.state.customers {
		out = append(out, *customer)
	}
	return out, nil
}

type memOrderRepo struct {
	// Exactly one of store (live view, locks per call) and state (inside a
	// transaction, mutex already held) is set.
	store *memStore
	state *memState
}

func (r *memOrderRepo) snapshot() (*memState, func()) {
	if r.state != nil {
		return r.state, func() {}
	}
	r.store.mu.Lock()
	return r.store.state, r.store.mu.Unlock
}

func (r *memOrderRepo) Create(order *models.Order) error {
	state, release := r.snapshot()
	defer release()
	order.ID = state.nextOrderID
	state.nextOrderID++
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].ID = state.nextItemID
		order.Items[i].OrderID = order.ID
		state.nextItemID++
	}
	state.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) GetByID(id uint) (*models.Order, error) {
	state, release := r.snapshot()
	defer release()
	order, ok := state.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepo) LockByID(id uint) (*models.Order, error) {
	return r.GetByID(id)
}

func (r *memOrderRepo) Update(order *models.Order) error {
	state, release := r.snapshot()
	defer release()
	order.UpdatedAt = time.Now()
	state.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) GetAll() ([]models.Order, error) {
	state, release := r.snapshot()
	defer release()
	var out []models.Order
	for _, order := range state.orders {
		out = append(out, *cloneOrder(order))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memOrderRepo) GetByCustomerID(customerID uint) ([]models.Order, error) {
	all, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.Order
	for _, order := range all {
		if order.CustomerID == customerID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *memOrderRepo) AppendHistory(entry *models.OrderStatusHistory) error {
	state, release := r.snapshot()
	defer release()
	entry.ID = state.nextHistoryID
	state.nextHistoryID++
	state.history[entry.OrderID] = append(state.history[entry.OrderID], *entry)
	return nil
}

func (r *memOrderRepo) GetHistory(orderID uint) ([]models.OrderStatusHistory, error) {
	state, release := r.snapshot()
	defer release()
	return append([]models.OrderStatusHistory(nil), state.history[orderID]...), nil
}

type memLedger struct {
	store *memStore
	state *memState
}

func (l *memLedger) AcquireExclusive(productIDs []uint) (map[uint]*models.Product, error) {
	ordered := ledger.LockOrder(productIDs)
	l.store.lockCalls = append(l.store.lockCalls, ordered)
	snapshot := make(map[uint]*models.Product)
	for _, id := range ordered {
		if product, ok := l.state.products[id]; ok {
			snapshot[id] = product
		}
	}
	return snapshot, nil
}

func (l *memLedger) Decrement(productID uint, amount int) error {
	product, ok := l.state.products[productID]
	if !ok {
		return models.ErrProductNotFound
	}
	if product.StockQuantity < amount {
		return models.ErrInsufficientStock
	}
	product.StockQuantity -= amount
	return nil
}

func (l *memLedger) Increment(productID uint, amount int) error {
	product, ok := l.state.products[productID]
	if !ok {
		return models.ErrProductNotFound
	}
	product.StockQuantity += amount
	return nil
}

// memGuard is an in-memory idempotency guard with write-once semantics.
type memGuard struct {
	mu      sync.Mutex
	records map[string]uint
}

func newMemGuard() *memGuard {
	return &memGuard{records: make(map[string]uint)}
}

func (g *memGuard) Lookup(ctx context.Context, key string) (uint, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	orderID, ok := g.records[key]
	return orderID, ok, nil
}

func (g *memGuard) Record(ctx context.Context, key string, orderID uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.records[key]; !exists {
		g.records[key] = orderID
	}
	return nil
}

// memPublisher collects published events for assertions.
type memPublisher struct {
	mu     sync.Mutex
	events []events.StatusChangedEvent
}

func (p *memPublisher) StatusChanged(ctx context.Context, event events.StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) published() []events.StatusChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.StatusChangedEvent(nil), p.events...)
}
