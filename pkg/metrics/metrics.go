// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed by the order placement service.",
	})

	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_rejected_total",
		Help:      "Order placements rejected, by reason.",
	}, []string{"reason"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status changes, by target status.",
	}, []string{"status"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification delivery attempts, by kind and result.",
	}, []string{"kind", "result"})

	LowStockProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "low_stock_products",
		Help:      "Active products at or below the low stock threshold.",
	})

	ProcessCPU = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_cpu_percent",
		Help:      "CPU usage of the storefront process.",
	})

	ProcessMemory = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_memory_bytes",
		Help:      "Resident memory of the storefront process.",
	})

	SystemMemoryUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "system_memory_used_percent",
		Help:      "Host memory in use.",
	})
)

// Rejection reasons
const (
	ReasonValidation  = "validation"
	ReasonEmptyCart   = "empty_cart"
	ReasonUnavailable = "product_unavailable"
	ReasonStock       = "insufficient_stock"
	ReasonInternal    = "internal"
)
