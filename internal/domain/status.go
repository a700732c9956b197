package domain

import "strings"

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderFlow is the forward path; CANCELLED sits outside it.
var orderFlow = []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered}

// ParseOrderStatus accepts any casing and surrounding blanks
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s OrderStatus) Valid() bool {
	if s == OrderCancelled {
		return true
	}
	return s.flowIndex() >= 0
}

// Terminal DELIVERED and CANCELLED accept no further transitions
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Next returns the single forward successor, or "" for terminal states
func (s OrderStatus) Next() OrderStatus {
	i := s.flowIndex()
	if i < 0 || i == len(orderFlow)-1 {
		return ""
	}
	return orderFlow[i+1]
}

// CanTransitionTo reports whether next is reachable from s. With strict set only the
// single forward step or a cancellation is allowed; otherwise any valid status may follow
// a non-terminal one. Terminal states never change.
func (s OrderStatus) CanTransitionTo(next OrderStatus, strict bool) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() || s == next {
		return false
	}
	if next == OrderCancelled || !strict {
		return true
	}
	return s.Next() == next
}

func (s OrderStatus) flowIndex() int {
	for i, st := range orderFlow {
		if st == s {
			return i
		}
	}
	return -1
}
