package repository

import (
	"context"

	"order_manager/internal/ledger"

	"gorm.io/gorm"
)

// Store is the set of data accessors scoped to one logical transaction.
// Everything obtained from the same Store commits or rolls back together,
// including the stock mutations performed through the Ledger.
type Store interface {
	Customers() CustomerRepository
	Orders() OrderRepository
	Ledger() ledger.Ledger
}

// TxManager runs a function inside a single atomic unit. If fn returns an
// error the whole unit is rolled back and the error is returned unchanged.
type TxManager interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Customers() CustomerRepository {
	return NewCustomerRepository(s.db)
}

func (s *gormStore) Orders() OrderRepository {
	return NewOrderRepository(s.db)
}

func (s *gormStore) Ledger() ledger.Ledger {
	return ledger.New(s.db)
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) InTx(ctx context.Context, fn func(tx Store) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
