package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/orders"
	"github.com/talkincode/storefront/internal/webserver"
)

const maxExportRows = 10000

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// orderDetail an order with its status timeline
type orderDetail struct {
	*domain.Order
	History []*domain.OrderStatusLog `json:"history"`
}

type orderCSVRow struct {
	TrackingCode  string `csv:"tracking_code"`
	Status        string `csv:"status"`
	CustomerEmail string `csv:"customer_email"`
	Items         int    `csv:"items"`
	Total         string `csv:"total"`
	ShippingAddr  string `csv:"shipping_addr"`
	CreatedAt     string `csv:"created_at"`
}

func registerOrderRoutes() {
	webserver.AdminGET("/admin/orders", listOrders)
	webserver.AdminGET("/admin/orders/export", exportOrders)
	webserver.AdminGET("/admin/orders/:id", getOrder)
	webserver.AdminPUT("/admin/orders/:id/status", updateOrderStatus)
}

func orderService(c echo.Context) *orders.Service {
	return GetAppContext(c).Orders()
}

// parseDateParam accepts any format dateparse understands. A bare date used as an upper
// bound covers the whole day.
func parseDateParam(value string, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(value, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if upper && len(value) <= len("2006-01-02") {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

func orderFilter(c echo.Context) (orders.ListFilter, error) {
	var filter orders.ListFilter
	if v := strings.TrimSpace(c.QueryParam("status")); v != "" {
		status, valid := domain.ParseOrderStatus(v)
		if !valid {
			return filter, errors.Errorf("unknown status %s", v)
		}
		filter.Status = status
	}
	if v := strings.TrimSpace(c.QueryParam("user_id")); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid user_id")
		}
		filter.UserID = userID
	}
	var err error
	if filter.From, err = parseDateParam(c.QueryParam("from"), false); err != nil {
		return filter, errors.New("invalid from date")
	}
	if filter.To, err = parseDateParam(c.QueryParam("to"), true); err != nil {
		return filter, errors.New("invalid to date")
	}
	filter.Keyword = strings.TrimSpace(c.QueryParam("q"))
	return filter, nil
}

func listOrders(c echo.Context) error {
	filter, err := orderFilter(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	filter.Page, filter.PageSize = parsePagination(c)
	rows, total, err := orderService(c).List(c.Request().Context(), filter)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to query orders")
	}
	return paged(c, rows, total, filter.Page, filter.PageSize)
}

func getOrder(c echo.Context) error {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	order, err := orderService(c).Get(c.Request().Context(), id)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to query order")
	}
	history, err := orderService(c).History(c.Request().Context(), id)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to query order history")
	}
	return ok(c, orderDetail{Order: order, History: history})
}

func updateOrderStatus(c echo.Context) error {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload orderStatusPayload
	if handled, err := bind(c, &payload); handled {
		return err
	}
	next, _ := domain.ParseOrderStatus(payload.Status)
	admin, _ := webserver.GetCurrentUser(c)
	order, err := orderService(c).UpdateStatus(c.Request().Context(), id, next, admin.Email)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to update order status")
	}
	return ok(c, order)
}

// exportOrders CSV of the orders matching the list filters, newest first
func exportOrders(c echo.Context) error {
	filter, err := orderFilter(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	filter.Page, filter.PageSize = 1, maxExportRows
	rows, _, err := orderService(c).List(c.Request().Context(), filter)
	if err != nil {
		return webserver.FailOrder(c, err, "Failed to export orders")
	}

	records := make([]*orderCSVRow, 0, len(rows))
	for _, o := range rows {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		records = append(records, &orderCSVRow{
			TrackingCode:  o.TrackingCode,
			Status:        string(o.Status),
			CustomerEmail: o.CustomerEmail,
			Items:         items,
			Total:         o.Total.StringFixed(2),
			ShippingAddr:  o.ShippingAddr,
			CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		})
	}
	data, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode CSV", err.Error())
	}
	filename := fmt.Sprintf("orders-%s.csv", time.Now().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}
