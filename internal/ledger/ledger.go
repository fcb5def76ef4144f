// Package ledger owns the per-product stock counters. All stock mutation
// during order processing goes through a Ledger obtained from a transaction
// scope, so locks live exactly as long as the enclosing transaction.
package ledger

import (
	"errors"
	"sort"

	"order_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger serializes concurrent stock mutations against the same products.
type Ledger interface {
	// AcquireExclusive blocks until exclusive locks are held on every given
	// product row and returns the locked snapshots keyed by product ID.
	// Products that do not exist are simply absent from the result. Locks
	// are always taken in ascending product ID order, regardless of the
	// order callers supply, so overlapping acquisitions cannot deadlock.
	AcquireExclusive(productIDs []uint) (map[uint]*models.Product, error)

	// Decrement reserves stock. It fails with models.ErrInsufficientStock
	// when amount exceeds the current stock, leaving the row untouched.
	// The caller must hold the lock from AcquireExclusive.
	Decrement(productID uint, amount int) error

	// Increment restores stock previously reserved, used on cancellation.
	// The caller must hold the lock from AcquireExclusive.
	Increment(productID uint, amount int) error
}

type gormLedger struct {
	db *gorm.DB
}

func New(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

// LockOrder dedupes the IDs and returns them in the fixed acquisition order.
func LockOrder(productIDs []uint) []uint {
	seen := make(map[uint]bool, len(productIDs))
	ordered := make([]uint, 0, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	return ordered
}

func (l *gormLedger) AcquireExclusive(productIDs []uint) (map[uint]*models.Product, error) {
	snapshot := make(map[uint]*models.Product)
	// Rows are locked one at a time in ascending ID order. A single IN query
	// would not guarantee the acquisition order the deadlock-freedom rule
	// depends on.
	for _, id := range LockOrder(productIDs) {
		var product models.Product
		err := l.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		snapshot[product.ID] = &product
	}
	return snapshot, nil
}

func (l *gormLedger) Decrement(productID uint, amount int) error {
	res := l.db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, amount).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	// The guard in the WHERE clause keeps stock_quantity from ever going
	// negative, even if callers validated against a stale snapshot.
	if res.RowsAffected == 0 {
		return models.ErrInsufficientStock
	}
	return nil
}

func (l *gormLedger) Increment(productID uint, amount int) error {
	res := l.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}
