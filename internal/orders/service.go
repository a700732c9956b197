package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
	"github.com/talkincode/storefront/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifications receives committed order events. Implementations must not block the
// caller; the service never looks at the outcome.
type Notifications interface {
	OrderCreated(order *domain.Order)
	StatusChanged(order *domain.Order, from domain.OrderStatus)
}

// Customer the authenticated buyer
type Customer struct {
	ID    int64
	Email string
}

type Options struct {
	// StrictTransitions only allows single forward steps and cancellation
	StrictTransitions bool
	MinAddressLength  int
}

// Service the order placement service
type Service struct {
	db         *gorm.DB
	notify     Notifications
	strict     bool
	minAddrLen int

	newStores func(db *gorm.DB) Stores
	newCode   func() string
}

// NewService creates the service on db. notify may be nil.
func NewService(db *gorm.DB, notify Notifications, opts Options) *Service {
	if opts.MinAddressLength <= 0 {
		opts.MinAddressLength = DefaultMinAddressLength
	}
	return &Service{
		db:         db,
		notify:     notify,
		strict:     opts.StrictTransitions,
		minAddrLen: opts.MinAddressLength,
		newStores:  NewGormStores,
		newCode:    NewTrackingCode,
	}
}

// withTx runs fn with stores bound to a single transaction. fn must not touch s.db.
func (s *Service) withTx(ctx context.Context, fn func(st Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.newStores(tx))
	})
}

// PlaceOrder converts the customer's cart into a PENDING order. Either the order, its
// items, the stock decrements and the cart clear all commit, or nothing does.
func (s *Service) PlaceOrder(ctx context.Context, cust Customer, shippingAddr string) (*domain.Order, error) {
	in, err := ValidatePlaceOrder(PlaceOrderInput{ShippingAddr: shippingAddr}, s.minAddrLen)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(metrics.ReasonValidation).Inc()
		return nil, err
	}

	order, err := s.placeOrder(ctx, cust, in)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		if !IsBusinessError(err) {
			zap.L().Error("place order failed",
				zap.Int64("user_id", cust.ID),
				zap.Error(err),
				zap.String("namespace", "orders"))
		}
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	zap.L().Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("tracking_code", order.TrackingCode),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("namespace", "orders"))

	if s.notify != nil {
		s.notify.OrderCreated(order)
	}
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, cust Customer, in PlaceOrderInput) (*domain.Order, error) {
	read := s.newStores(s.db)

	lines, err := read.Cart.GetCartLines(ctx, cust.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Revalidate against current product rows, not the ones seen when the lines were added.
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := read.Catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := time.Now()
	order := &domain.Order{
		ID:            common.UUIDint64(),
		UserID:        cust.ID,
		CustomerEmail: cust.Email,
		ShippingAddr:  in.ShippingAddr,
		Status:        domain.OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	total := decimal.Zero
	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok || !p.IsActive {
			e := &ProductUnavailableError{ProductID: line.ProductID}
			if ok {
				e.Name = p.Name
			} else if line.Product != nil {
				e.Name = line.Product.Name
			}
			return nil, e
		}
		if line.Quantity > p.Stock {
			return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: line.Quantity}
		}
		item := domain.OrderItem{
			ID:          common.UUIDint64(),
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			ImageURL:    p.ImageURL,
			Quantity:    line.Quantity,
			Price:       p.Price.Round(2),
			CreatedAt:   now,
		}
		total = total.Add(item.LineTotal())
		order.Items = append(order.Items, item)
	}
	order.Total = total.Round(2)

	order.TrackingCode, err = s.allocateTrackingCode(ctx, read.Orders)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(st Stores) error {
		if err := st.Orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			err := st.Catalog.DecrementStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, ErrStockConflict) {
				return s.stockConflict(ctx, st, item)
			}
			if err != nil {
				return err
			}
		}
		if err := st.Cart.ClearCart(ctx, cust.ID); err != nil {
			return err
		}
		return st.Orders.AppendStatusLog(ctx, &domain.OrderStatusLog{
			ID:        common.UUIDint64(),
			OrderID:   order.ID,
			ToStatus:  domain.OrderPending,
			Operator:  cust.Email,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// stockConflict re-reads the product inside the transaction so the error reports what
// is actually left after the competing writer.
func (s *Service) stockConflict(ctx context.Context, st Stores, item domain.OrderItem) error {
	products, err := st.Catalog.FindProductsByIDs(ctx, []int64{item.ProductID})
	if err != nil {
		return err
	}
	if len(products) == 0 || !products[0].IsActive {
		return &ProductUnavailableError{ProductID: item.ProductID, Name: item.ProductName}
	}
	return &InsufficientStockError{
		ProductID: item.ProductID,
		Name:      products[0].Name,
		Available: products[0].Stock,
		Requested: item.Quantity,
	}
}

func rejectReason(err error) string {
	var (
		unavailable *ProductUnavailableError
		stock       *InsufficientStockError
		invalid     *ValidationError
	)
	switch {
	case errors.Is(err, ErrEmptyCart):
		return metrics.ReasonEmptyCart
	case errors.As(err, &unavailable):
		return metrics.ReasonUnavailable
	case errors.As(err, &stock):
		return metrics.ReasonStock
	case errors.As(err, &invalid):
		return metrics.ReasonValidation
	}
	return metrics.ReasonInternal
}

// UpdateStatus admin status change. Setting the current status again is a no-op and
// returns the order unchanged. Entering CANCELLED puts the ordered quantities back in stock.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, next domain.OrderStatus, operator string) (*domain.Order, error) {
	if !next.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown order status " + string(next)}
	}
	return s.transition(ctx, orderID, next, operator, func(o *domain.Order) error {
		if o.Status != next && !o.Status.CanTransitionTo(next, s.strict) {
			return &InvalidTransitionError{From: o.Status, To: next}
		}
		return nil
	})
}

// CancelOrder customer cancellation, allowed while the order is PENDING or CONFIRMED.
// Orders of other users are reported as not found.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID int64, operator string) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderCancelled, operator, func(o *domain.Order) error {
		if o.UserID != userID {
			return ErrOrderNotFound
		}
		switch o.Status {
		case domain.OrderPending, domain.OrderConfirmed, domain.OrderCancelled:
		default:
			return &InvalidTransitionError{From: o.Status, To: domain.OrderCancelled}
		}
		return nil
	})
}

// transition applies next under a compare-and-set on the current status. allow sees the
// freshly read order and may veto; a status equal to next is then a no-op.
func (s *Service) transition(ctx context.Context, orderID int64, next domain.OrderStatus, operator string,
	allow func(o *domain.Order) error) (*domain.Order, error) {
	var (
		order   *domain.Order
		from    domain.OrderStatus
		changed bool
	)
	err := s.withTx(ctx, func(st Stores) error {
		o, err := st.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		order, from = o, o.Status
		if err := allow(o); err != nil {
			return err
		}
		if o.Status == next {
			return nil
		}
		if err := st.Orders.UpdateStatus(ctx, orderID, from, next); err != nil {
			return err
		}
		if next == domain.OrderCancelled {
			for _, item := range o.Items {
				if err := st.Catalog.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		now := time.Now()
		if err := st.Orders.AppendStatusLog(ctx, &domain.OrderStatusLog{
			ID:         common.UUIDint64(),
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   next,
			Operator:   operator,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		o.Status = next
		o.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	zap.L().Info("order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
		zap.String("operator", operator),
		zap.String("namespace", "orders"))

	if s.notify != nil {
		s.notify.StatusChanged(order, from)
	}
	return order, nil
}

// Get admin lookup by id
func (s *Service) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.newStores(s.db).Orders.GetByID(ctx, orderID)
}

// GetForUser returns the order only if it belongs to userID
func (s *Service) GetForUser(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForUserByCode tracking code lookup restricted to the owner, with full details
func (s *Service) GetForUserByCode(ctx context.Context, userID int64, code string) (*domain.Order, error) {
	code, ok := NormalizeTrackingCode(code)
	if !ok {
		return nil, ErrOrderNotFound
	}
	order, err := s.newStores(s.db).Orders.GetByTrackingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Order, int64, error) {
	return s.newStores(s.db).Orders.ListByUser(ctx, userID, page, pageSize)
}

// List admin listing
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Order, int64, error) {
	return s.newStores(s.db).Orders.List(ctx, filter)
}

// History status changes in the order they happened
func (s *Service) History(ctx context.Context, orderID int64) ([]*domain.OrderStatusLog, error) {
	return s.newStores(s.db).Orders.StatusHistory(ctx, orderID)
}
