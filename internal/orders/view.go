package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
)

// TrackingView is the public projection of an order. It carries no address, email or
// account identifiers.
type TrackingView struct {
	TrackingCode string              `json:"tracking_code"`
	Status       domain.OrderStatus  `json:"status"`
	Total        decimal.Decimal     `json:"total"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Items        []TrackingItem      `json:"items"`
	History      []TrackingStatusLog `json:"history"`
}

type TrackingItem struct {
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type TrackingStatusLog struct {
	Status    domain.OrderStatus `json:"status"`
	ChangedAt time.Time          `json:"changed_at"`
}

// Track public lookup by tracking code, case insensitive
func (s *Service) Track(ctx context.Context, code string) (*TrackingView, error) {
	code, ok := NormalizeTrackingCode(code)
	if !ok {
		return nil, ErrOrderNotFound
	}
	st := s.newStores(s.db)
	order, err := st.Orders.GetByTrackingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	logs, err := st.Orders.StatusHistory(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return NewTrackingView(order, logs), nil
}

func NewTrackingView(order *domain.Order, logs []*domain.OrderStatusLog) *TrackingView {
	v := &TrackingView{
		TrackingCode: order.TrackingCode,
		Status:       order.Status,
		Total:        order.Total,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Items:        make([]TrackingItem, 0, len(order.Items)),
		History:      make([]TrackingStatusLog, 0, len(logs)),
	}
	for _, item := range order.Items {
		v.Items = append(v.Items, TrackingItem{
			Name:     item.ProductName,
			ImageURL: item.ImageURL,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	for _, l := range logs {
		v.History = append(v.History, TrackingStatusLog{Status: l.ToStatus, ChangedAt: l.CreatedAt})
	}
	return v
}
