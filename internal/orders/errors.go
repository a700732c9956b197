package orders

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/domain"
)

var (
	// ErrEmptyCart the customer has nothing to check out
	ErrEmptyCart = errors.New("cart is empty")

	ErrOrderNotFound = errors.New("order not found")

	// ErrStatusConflict another writer changed the order status first
	ErrStatusConflict = errors.New("order status was changed concurrently")

	// ErrStockConflict is returned by CatalogStore.DecrementStock when the guarded update
	// matched no row.
	ErrStockConflict = errors.New("stock changed concurrently")

	ErrTrackingCodeExhausted = errors.New("could not allocate a unique tracking code")
)

// ProductUnavailableError a cart line references an inactive or deleted product
type ProductUnavailableError struct {
	ProductID int64
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("Product %d is no longer available", e.ProductID)
	}
	return fmt.Sprintf("Product %s is no longer available", e.Name)
}

// InsufficientStockError names the product and both quantities so the client can fix
// the cart without another round trip.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s. Available: %d, Requested: %d", e.Name, e.Available, e.Requested)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type InvalidTransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// IsBusinessError reports whether err is a rule violation the caller can correct,
// as opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	var (
		unavailable *ProductUnavailableError
		stock       *InsufficientStockError
		invalid     *ValidationError
		transition  *InvalidTransitionError
	)
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrStatusConflict):
		return true
	case errors.As(err, &unavailable), errors.As(err, &stock), errors.As(err, &invalid), errors.As(err, &transition):
		return true
	}
	return false
}
