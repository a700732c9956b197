package orders

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAddr = "123 Main St, City, 00000"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "orders.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection serializes writers the way row locks would on postgres
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       common.UUIDint64(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID int64, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&domain.CartItem{
		ID:        common.UUIDint64(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: time.Now(),
	}).Error)
}

func stockOf(t *testing.T, db *gorm.DB, productID int64) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []*domain.Order
	changes []domain.OrderStatus
}

func (r *recordingNotifier) OrderCreated(order *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, order)
}

func (r *recordingNotifier) StatusChanged(order *domain.Order, from domain.OrderStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, order.Status)
}

func (r *recordingNotifier) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created), len(r.changes)
}

// catalogHook wraps the transaction's catalog store to inject behavior before a decrement
type catalogHook struct {
	CatalogStore
	db     *gorm.DB
	before func(db *gorm.DB, productID int64) error
}

func (c *catalogHook) DecrementStock(ctx context.Context, productID int64, amount int) error {
	if err := c.before(c.db, productID); err != nil {
		return err
	}
	return c.CatalogStore.DecrementStock(ctx, productID, amount)
}

func hookStores(before func(db *gorm.DB, productID int64) error) func(db *gorm.DB) Stores {
	return func(db *gorm.DB) Stores {
		st := NewGormStores(db)
		st.Catalog = &catalogHook{CatalogStore: st.Catalog, db: db, before: before}
		return st
	}
}

func newTestService(db *gorm.DB, strict bool) (*Service, *recordingNotifier) {
	rec := &recordingNotifier{}
	return NewService(db, rec, Options{StrictTransitions: strict}), rec
}
