package webserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/orders"
	"go.uber.org/zap"
)

// FailOrder renders an order service error. Business errors map to 4xx with the
// offending product and quantities in detail; anything else is a 500. Ids are
// rendered as strings like the models do.
func FailOrder(c echo.Context, err error, message string) error {
	var (
		unavailable *orders.ProductUnavailableError
		stock       *orders.InsufficientStockError
		invalid     *orders.ValidationError
		transition  *orders.InvalidTransitionError
	)
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return Fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)
	case errors.Is(err, orders.ErrOrderNotFound):
		return Fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	case errors.Is(err, orders.ErrStatusConflict):
		return Fail(c, http.StatusConflict, "STATUS_CONFLICT", "Order status was changed by another request", nil)
	case errors.As(err, &unavailable):
		return Fail(c, http.StatusConflict, "PRODUCT_UNAVAILABLE", unavailable.Error(), map[string]interface{}{
			"product_id": strconv.FormatInt(unavailable.ProductID, 10),
			"name":       unavailable.Name,
		})
	case errors.As(err, &stock):
		return Fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", stock.Error(), map[string]interface{}{
			"product_id": strconv.FormatInt(stock.ProductID, 10),
			"name":       stock.Name,
			"available":  stock.Available,
			"requested":  stock.Requested,
		})
	case errors.As(err, &invalid):
		return Fail(c, http.StatusBadRequest, "INVALID_REQUEST", invalid.Message, map[string]string{
			invalid.Field: invalid.Message,
		})
	case errors.As(err, &transition):
		return Fail(c, http.StatusConflict, "INVALID_TRANSITION", transition.Error(), map[string]string{
			"from": string(transition.From),
			"to":   string(transition.To),
		})
	}
	zap.S().Errorf("%s: %+v", message, err)
	return Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", message, nil)
}
