package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
	"github.com/talkincode/storefront/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sendTimeout = 30 * time.Second
	// pending rows younger than this may still be in flight
	pendingGrace = time.Minute
	retryBatch   = 100
)

type DispatcherOptions struct {
	Workers     int
	MaxRetries  int
	FrontendURL string
}

// Dispatcher sends order notifications on a worker pool after the order has committed.
// Every send is recorded in notify_log; failures stay there for RetryFailed.
type Dispatcher struct {
	db          *gorm.DB
	notifier    Notifier
	pool        *ants.Pool
	wg          sync.WaitGroup
	maxRetries  int
	frontendURL string
}

func NewDispatcher(db *gorm.DB, notifier Notifier, opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	pool, err := ants.NewPool(opts.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			zap.S().Errorf("notification worker panic: %v", p)
		}))
	if err != nil {
		return nil, errors.Wrap(err, "create notification pool")
	}
	return &Dispatcher{
		db:          db,
		notifier:    notifier,
		pool:        pool,
		maxRetries:  opts.MaxRetries,
		frontendURL: opts.FrontendURL,
	}, nil
}

func (d *Dispatcher) OrderCreated(order *domain.Order) {
	d.dispatch(domain.NotifyOrderCreated, order.ID, order.CustomerEmail, NewOrderSummary(order, d.frontendURL))
}

func (d *Dispatcher) StatusChanged(order *domain.Order, from domain.OrderStatus) {
	d.dispatch(domain.NotifyStatusChanged, order.ID, order.CustomerEmail, NewStatusUpdate(order, from, d.frontendURL))
}

func (d *Dispatcher) dispatch(kind string, orderID int64, email string, payload interface{}) {
	if email == "" {
		zap.L().Debug("skip notification without recipient",
			zap.Int64("order_id", orderID), zap.String("kind", kind), zap.String("namespace", "notify"))
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("encode notification", zap.Error(err), zap.String("namespace", "notify"))
		return
	}
	now := time.Now()
	rec := &domain.NotifyLog{
		ID:        common.UUIDint64(),
		OrderID:   orderID,
		Kind:      kind,
		Recipient: email,
		Payload:   string(data),
		Status:    domain.NotifyStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	d.wg.Add(1)
	err = d.pool.Submit(func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		d.record(ctx, rec)
		_ = d.deliver(ctx, rec)
	})
	if err != nil {
		d.wg.Done()
		// pool busy: keep the pending row so RetryFailed picks it up
		d.record(context.Background(), rec)
		metrics.Notifications.WithLabelValues(kind, "queued").Inc()
		zap.L().Warn("notification pool busy, left for retry",
			zap.Int64("order_id", orderID), zap.Error(err), zap.String("namespace", "notify"))
	}
}

// record inserts the pending outbox row. On failure the send is still attempted but
// cannot be retried later.
func (d *Dispatcher) record(ctx context.Context, rec *domain.NotifyLog) {
	if err := d.db.WithContext(ctx).Create(rec).Error; err != nil {
		zap.L().Warn("record notification", zap.Int64("order_id", rec.OrderID), zap.Error(err), zap.String("namespace", "notify"))
		rec.ID = 0
	}
}

// deliver sends one record and stores the outcome
func (d *Dispatcher) deliver(ctx context.Context, rec *domain.NotifyLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
			d.markFailed(ctx, rec, err)
		}
	}()

	if err = d.send(ctx, rec); err != nil {
		d.markFailed(ctx, rec, err)
		return err
	}
	metrics.Notifications.WithLabelValues(rec.Kind, "sent").Inc()
	if rec.ID == 0 {
		return nil
	}
	now := time.Now()
	if err := d.db.WithContext(ctx).Model(&domain.NotifyLog{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"status":     domain.NotifyStatusSent,
			"error_msg":  "",
			"sent_at":    &now,
			"updated_at": now,
		}).Error; err != nil {
		zap.L().Warn("update notification status", zap.Int64("id", rec.ID), zap.Error(err))
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, rec *domain.NotifyLog) error {
	switch rec.Kind {
	case domain.NotifyOrderCreated:
		var summary OrderSummary
		if err := json.Unmarshal([]byte(rec.Payload), &summary); err != nil {
			return errors.Wrap(err, "decode order summary")
		}
		return d.notifier.NotifyOrderCreated(ctx, rec.Recipient, summary)
	case domain.NotifyStatusChanged:
		var update StatusUpdate
		if err := json.Unmarshal([]byte(rec.Payload), &update); err != nil {
			return errors.Wrap(err, "decode status update")
		}
		return d.notifier.NotifyStatusChanged(ctx, rec.Recipient, update)
	}
	return errors.Errorf("unknown notification kind %q", rec.Kind)
}

func (d *Dispatcher) markFailed(ctx context.Context, rec *domain.NotifyLog, cause error) {
	metrics.Notifications.WithLabelValues(rec.Kind, "failed").Inc()
	zap.L().Warn("notification failed",
		zap.Int64("order_id", rec.OrderID),
		zap.String("kind", rec.Kind),
		zap.String("to", rec.Recipient),
		zap.Error(cause),
		zap.String("namespace", "notify"))
	if rec.ID == 0 {
		return
	}
	if err := d.db.WithContext(context.WithoutCancel(ctx)).Model(&domain.NotifyLog{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"status":      domain.NotifyStatusFailed,
			"error_msg":   cause.Error(),
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now(),
		}).Error; err != nil {
		zap.L().Warn("update notification status", zap.Int64("id", rec.ID), zap.Error(err))
	}
}

// RetryFailed re-sends failed records below the retry limit and pending records the pool
// never picked up. It returns how many were delivered.
func (d *Dispatcher) RetryFailed(ctx context.Context) (int, error) {
	var rows []*domain.NotifyLog
	err := d.db.WithContext(ctx).
		Where("(status = ? AND retry_count < ?) OR (status = ? AND created_at < ?)",
			domain.NotifyStatusFailed, d.maxRetries,
			domain.NotifyStatusPending, time.Now().Add(-pendingGrace)).
		Order("created_at ASC").
		Limit(retryBatch).
		Find(&rows).Error
	if err != nil {
		return 0, errors.Wrap(err, "query notifications")
	}
	if len(rows) > 0 {
		zap.L().Debug("retrying notifications", zap.Int("count", len(rows)), zap.String("namespace", "notify"))
	}
	sent := 0
	for _, rec := range rows {
		if ctx.Err() != nil {
			break
		}
		if d.deliver(ctx, rec) == nil {
			sent++
		}
	}
	return sent, ctx.Err()
}

// PurgeSent deletes delivered records older than days
func (d *Dispatcher) PurgeSent(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 90
	}
	res := d.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.NotifyStatusSent, time.Now().AddDate(0, 0, -days)).
		Delete(&domain.NotifyLog{})
	return res.RowsAffected, errors.Wrap(res.Error, "purge notifications")
}

// Wait blocks until all submitted sends have finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) Close() {
	d.wg.Wait()
	d.pool.Release()
}
