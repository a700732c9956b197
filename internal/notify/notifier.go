// Package notify delivers customer notifications for committed orders.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
	"go.uber.org/zap"
)

// Notifier sends a single message. Errors are returned to the dispatcher, which records
// them for retry; they never reach the order flow.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, email string, summary OrderSummary) error
	NotifyStatusChanged(ctx context.Context, email string, update StatusUpdate) error
}

type OrderSummary struct {
	OrderID      int64           `json:"order_id,string"`
	TrackingCode string          `json:"tracking_code"`
	Total        decimal.Decimal `json:"total"`
	ShippingAddr string          `json:"shipping_addr"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []SummaryItem   `json:"items"`
	TrackURL     string          `json:"track_url"`
}

type SummaryItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineTotal used by the templates
func (i SummaryItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type StatusUpdate struct {
	OrderID      int64              `json:"order_id,string"`
	TrackingCode string             `json:"tracking_code"`
	From         domain.OrderStatus `json:"from"`
	To           domain.OrderStatus `json:"to"`
	TrackURL     string             `json:"track_url"`
}

// NewOrderSummary builds the message data from a committed order
func NewOrderSummary(order *domain.Order, frontendURL string) OrderSummary {
	s := OrderSummary{
		OrderID:      order.ID,
		TrackingCode: order.TrackingCode,
		Total:        order.Total,
		ShippingAddr: order.ShippingAddr,
		CreatedAt:    order.CreatedAt,
		TrackURL:     TrackURL(frontendURL, order.TrackingCode),
	}
	for _, item := range order.Items {
		s.Items = append(s.Items, SummaryItem{Name: item.ProductName, Quantity: item.Quantity, Price: item.Price})
	}
	return s
}

func NewStatusUpdate(order *domain.Order, from domain.OrderStatus, frontendURL string) StatusUpdate {
	return StatusUpdate{
		OrderID:      order.ID,
		TrackingCode: order.TrackingCode,
		From:         from,
		To:           order.Status,
		TrackURL:     TrackURL(frontendURL, order.TrackingCode),
	}
}

// TrackURL public tracking page link, empty when no frontend is configured
func TrackURL(frontendURL, code string) string {
	if frontendURL == "" {
		return ""
	}
	return strings.TrimRight(frontendURL, "/") + "/track?code=" + code
}

// LogNotifier writes notifications to the log instead of sending them. Used when no SMTP
// host is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyOrderCreated(_ context.Context, email string, summary OrderSummary) error {
	zap.L().Info("order confirmation",
		zap.String("to", email),
		zap.String("tracking_code", summary.TrackingCode),
		zap.String("total", summary.Total.StringFixed(2)),
		zap.String("namespace", "notify"))
	return nil
}

func (LogNotifier) NotifyStatusChanged(_ context.Context, email string, update StatusUpdate) error {
	zap.L().Info("order status update",
		zap.String("to", email),
		zap.String("tracking_code", update.TrackingCode),
		zap.String("status", string(update.To)),
		zap.String("namespace", "notify"))
	return nil
}
