package adminapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	dashboardMonths      = 6
	dashboardRecent      = 5
	dashboardLowStockMax = 10
)

type MonthlySales struct {
	Month   string          `json:"month"` // 2006-01
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardStats struct {
	ActiveProducts    int64            `json:"active_products"`
	TotalOrders       int64            `json:"total_orders"`
	PendingOrders     int64            `json:"pending_orders"`
	Revenue           decimal.Decimal  `json:"revenue"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	MedianOrderValue  decimal.Decimal  `json:"median_order_value"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	LowStockCount     int64            `json:"low_stock_count"`
	LowStock          []domain.Product `json:"low_stock"`
	RecentOrders      []domain.Order   `json:"recent_orders"`
	SalesByMonth      []MonthlySales   `json:"sales_by_month"`
}

func registerDashboardRoutes() {
	webserver.AdminGET("/admin/dashboard", getDashboard)
}

func getDashboard(c echo.Context) error {
	result, err := BuildDashboard(c.Request().Context(), GetDB(c),
		GetAppContext(c).ConfigMgr().GetInt(app.StoreCategory, "low_stock_threshold"), time.Now())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build dashboard", err.Error())
	}
	return ok(c, result)
}

// monthStart first instant of the month n months before now
func monthStart(now time.Time, n int) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, now.Location())
}

// BuildDashboard runs the dashboard queries concurrently. Revenue and order value figures
// exclude cancelled orders.
func BuildDashboard(ctx context.Context, db *gorm.DB, threshold int, now time.Time) (*DashboardStats, error) {
	res := &DashboardStats{LowStockThreshold: threshold}
	var totals []decimal.Decimal
	var recent []struct {
		CreatedAt time.Time
		Total     decimal.Decimal
	}
	since := monthStart(now, dashboardMonths-1)

	g, gctx := errgroup.WithContext(ctx)
	q := func() *gorm.DB { return db.WithContext(gctx) }
	notCancelled := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status <> ?", domain.OrderCancelled)
	}

	g.Go(func() error {
		return q().Model(&domain.Product{}).Where("is_active = ?", true).Count(&res.ActiveProducts).Error
	})
	g.Go(func() error {
		return q().Model(&domain.Order{}).Count(&res.TotalOrders).Error
	})
	g.Go(func() error {
		return q().Model(&domain.Order{}).Where("status = ?", domain.OrderPending).Count(&res.PendingOrders).Error
	})
	g.Go(func() error {
		return q().Model(&domain.Order{}).Scopes(notCancelled).Pluck("total", &totals).Error
	})
	g.Go(func() error {
		low := q().Model(&domain.Product{}).Where("is_active = ? AND stock <= ?", true, threshold)
		if err := low.Count(&res.LowStockCount).Error; err != nil {
			return err
		}
		return q().Where("is_active = ? AND stock <= ?", true, threshold).
			Order("stock ASC, name ASC").Limit(dashboardLowStockMax).
			Find(&res.LowStock).Error
	})
	g.Go(func() error {
		return q().Order("created_at DESC").Limit(dashboardRecent).Find(&res.RecentOrders).Error
	})
	g.Go(func() error {
		return q().Model(&domain.Order{}).Scopes(notCancelled).
			Select("created_at, total").
			Where("created_at >= ?", since).
			Scan(&recent).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Revenue = decimal.Zero
	values := make([]float64, 0, len(totals))
	for _, t := range totals {
		res.Revenue = res.Revenue.Add(t)
		values = append(values, t.InexactFloat64())
	}
	res.Revenue = res.Revenue.Round(2)
	res.AverageOrderValue, res.MedianOrderValue = decimal.Zero, decimal.Zero
	if len(values) > 0 {
		if mean, err := stats.Mean(values); err == nil {
			res.AverageOrderValue = decimal.NewFromFloat(mean).Round(2)
		}
		if median, err := stats.Median(values); err == nil {
			res.MedianOrderValue = decimal.NewFromFloat(median).Round(2)
		}
	}

	res.SalesByMonth = make([]MonthlySales, dashboardMonths)
	index := make(map[string]int, dashboardMonths)
	for i := 0; i < dashboardMonths; i++ {
		month := monthStart(now, dashboardMonths-1-i).Format("2006-01")
		res.SalesByMonth[i] = MonthlySales{Month: month, Revenue: decimal.Zero}
		index[month] = i
	}
	for _, r := range recent {
		i, found := index[r.CreatedAt.In(now.Location()).Format("2006-01")]
		if !found {
			continue
		}
		res.SalesByMonth[i].Orders++
		res.SalesByMonth[i].Revenue = res.SalesByMonth[i].Revenue.Add(r.Total)
	}
	return res, nil
}
