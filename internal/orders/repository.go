package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/domain"
	"gorm.io/gorm"
)

// CatalogStore product access needed by checkout. Every method must work on a
// transaction-bound session.
type CatalogStore interface {
	// FindProductsByIDs returns the products that exist, in no particular order
	FindProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)

	// DecrementStock subtracts amount only while the product is active and has enough
	// stock; otherwise it returns ErrStockConflict and changes nothing.
	DecrementStock(ctx context.Context, productID int64, amount int) error

	// RestoreStock adds amount back, used when an order is cancelled
	RestoreStock(ctx context.Context, productID int64, amount int) error
}

// CartStore per-user pending lines
type CartStore interface {
	// GetCartLines returns lines with Product preloaded (nil when the product row is gone)
	GetCartLines(ctx context.Context, userID int64) ([]*domain.CartItem, error)

	ClearCart(ctx context.Context, userID int64) error
}

// OrderStore order persistence
type OrderStore interface {
	// CreateOrder writes the order and its items in one statement group
	CreateOrder(ctx context.Context, order *domain.Order) error

	// UpdateStatus moves the order from one status to another, returning
	// ErrStatusConflict when the current status is no longer from.
	UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) error

	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)

	GetByTrackingCode(ctx context.Context, code string) (*domain.Order, error)

	TrackingCodeExists(ctx context.Context, code string) (bool, error)

	ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Order, int64, error)

	List(ctx context.Context, filter ListFilter) ([]*domain.Order, int64, error)

	AppendStatusLog(ctx context.Context, log *domain.OrderStatusLog) error

	StatusHistory(ctx context.Context, orderID int64) ([]*domain.OrderStatusLog, error)
}

// Stores the store contracts bound to one database session
type Stores struct {
	Catalog CatalogStore
	Cart    CartStore
	Orders  OrderStore
}

// NewGormStores binds all stores to db, which may be a transaction
func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Catalog: &GormCatalogStore{db: db},
		Cart:    &GormCartStore{db: db},
		Orders:  &GormOrderStore{db: db},
	}
}

// ListFilter admin order listing; zero values are ignored
type ListFilter struct {
	Status   domain.OrderStatus
	UserID   int64
	From     time.Time
	To       time.Time
	Keyword  string
	Page     int
	PageSize int
}

// GormCatalogStore is the GORM implementation of CatalogStore
type GormCatalogStore struct {
	db *gorm.DB
}

func (r *GormCatalogStore) FindProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	var products []*domain.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, errors.Wrap(err, "query products")
}

func (r *GormCatalogStore) DecrementStock(ctx context.Context, productID int64, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", productID, true, amount).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

func (r *GormCatalogStore) RestoreStock(ctx context.Context, productID int64, amount int) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", amount),
			"updated_at": time.Now(),
		}).Error
	return errors.Wrap(err, "restore stock")
}

// GormCartStore is the GORM implementation of CartStore
type GormCartStore struct {
	db *gorm.DB
}

func (r *GormCartStore) GetCartLines(ctx context.Context, userID int64) ([]*domain.CartItem, error) {
	var lines []*domain.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, errors.Wrap(err, "query cart")
}

func (r *GormCartStore) ClearCart(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
	return errors.Wrap(err, "clear cart")
}

// GormOrderStore is the GORM implementation of OrderStore
type GormOrderStore struct {
	db *gorm.DB
}

func (r *GormOrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *GormOrderStore) UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *GormOrderStore) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	return r.found(&order, err)
}

func (r *GormOrderStore) GetByTrackingCode(ctx context.Context, code string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("tracking_code = ?", code).First(&order).Error
	return r.found(&order, err)
}

func (r *GormOrderStore) found(order *domain.Order, err error) (*domain.Order, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	return order, nil
}

func (r *GormOrderStore) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("tracking_code = ?", code).Count(&count).Error
	return count > 0, errors.Wrap(err, "check tracking code")
}

func (r *GormOrderStore) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Order, int64, error) {
	return r.List(ctx, ListFilter{UserID: userID, Page: page, PageSize: pageSize})
}

func (r *GormOrderStore) List(ctx context.Context, filter ListFilter) ([]*domain.Order, int64, error) {
	var orders []*domain.Order
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.UserID != 0 {
			db = db.Where("user_id = ?", filter.UserID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if !filter.From.IsZero() {
			db = db.Where("created_at >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			db = db.Where("created_at < ?", filter.To)
		}
		if filter.Keyword != "" {
			like := "%" + filter.Keyword + "%"
			db = db.Where("(tracking_code LIKE ? OR customer_email LIKE ?)", like, like)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, errors.Wrap(err, "query orders")
}

func (r *GormOrderStore) AppendStatusLog(ctx context.Context, log *domain.OrderStatusLog) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(log).Error, "write status log")
}

func (r *GormOrderStore) StatusHistory(ctx context.Context, orderID int64) ([]*domain.OrderStatusLog, error) {
	var logs []*domain.OrderStatusLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, errors.Wrap(err, "query status log")
}
