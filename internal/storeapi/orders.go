package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/storefront/internal/orders"
	"github.com/talkincode/storefront/internal/webserver"
)

func registerOrderRoutes() {
	webserver.ApiPOST("/orders", placeOrder)
	webserver.ApiGET("/orders", listMyOrders)
	webserver.ApiGET("/orders/my/:code", getMyOrderByCode)
	webserver.ApiGET("/orders/:id", getMyOrder)
	webserver.ApiPUT("/orders/:id/cancel", cancelMyOrder)
	webserver.PublicGET("/orders/track/:code", trackOrder)
}

func orderService(c echo.Context) *orders.Service {
	return webserver.GetAppContext(c).Orders()
}

// placeOrder checks out the caller's cart. Address rules live in the order service.
func placeOrder(c echo.Context) error {
	var payload orders.PlaceOrderInput
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", nil)
	}
	user := currentUser(c)
	order, err := orderService(c).PlaceOrder(c.Request().Context(), orders.Customer{
		ID:    user.ID,
		Email: user.Email,
	}, payload.ShippingAddr)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to place order")
	}
	return created(c, order)
}

func listMyOrders(c echo.Context) error {
	page, pageSize := webserver.ParsePagination(c)
	rows, total, err := orderService(c).ListForUser(c.Request().Context(), currentUser(c).ID, page, pageSize)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to query orders")
	}
	return paged(c, rows, total, page, pageSize)
}

func getMyOrder(c echo.Context) error {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	order, err := orderService(c).GetForUser(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to query order")
	}
	return ok(c, order)
}

func getMyOrderByCode(c echo.Context) error {
	order, err := orderService(c).GetForUserByCode(c.Request().Context(), currentUser(c).ID, c.Param("code"))
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to query order")
	}
	return ok(c, order)
}

func cancelMyOrder(c echo.Context) error {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	user := currentUser(c)
	order, err := orderService(c).CancelOrder(c.Request().Context(), user.ID, id, user.Email)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to cancel order")
	}
	return ok(c, order)
}

// trackOrder public lookup, returns the redacted view only
func trackOrder(c echo.Context) error {
	view, err := orderService(c).Track(c.Request().Context(), c.Param("code"))
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to track order")
	}
	return ok(c, view)
}
