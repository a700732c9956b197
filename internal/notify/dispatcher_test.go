package notify

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeNotifier struct {
	mu       sync.Mutex
	fail     bool
	created  []OrderSummary
	statuses []StatusUpdate
	calls    int
}

func (f *fakeNotifier) NotifyOrderCreated(_ context.Context, _ string, s OrderSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.created = append(f.created, s)
	return nil
}

func (f *fakeNotifier) NotifyStatusChanged(_ context.Context, _ string, u StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.statuses = append(f.statuses, u)
	return nil
}

func (f *fakeNotifier) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notify.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.NotifyLog{}))
	return db
}

func newTestDispatcher(t *testing.T, n Notifier) (*Dispatcher, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	d, err := NewDispatcher(db, n, DispatcherOptions{Workers: 2, MaxRetries: 3, FrontendURL: "http://shop.local/"})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, db
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            common.UUIDint64(),
		CustomerEmail: "buyer@example.com",
		ShippingAddr:  "123 Main St, City, 00000",
		TrackingCode:  "A1B2C3D4E5F6",
		Status:        domain.OrderPending,
		Total:         decimal.RequireFromString("64.97"),
		Items: []domain.OrderItem{
			{ProductName: "Shirt", Quantity: 3, Price: decimal.RequireFromString("19.99")},
			{ProductName: "Socks", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}
}

func lastLog(t *testing.T, db *gorm.DB) domain.NotifyLog {
	t.Helper()
	var rec domain.NotifyLog
	require.NoError(t, db.Order("created_at DESC").First(&rec).Error)
	return rec
}

func TestDispatcher_OrderCreatedRecordsDelivery(t *testing.T) {
	fake := &fakeNotifier{}
	d, db := newTestDispatcher(t, fake)

	d.OrderCreated(testOrder())
	d.Wait()

	require.Len(t, fake.created, 1)
	s := fake.created[0]
	assert.Equal(t, "A1B2C3D4E5F6", s.TrackingCode)
	assert.True(t, decimal.RequireFromString("64.97").Equal(s.Total))
	assert.Equal(t, "http://shop.local/track?code=A1B2C3D4E5F6", s.TrackURL)
	require.Len(t, s.Items, 2)

	rec := lastLog(t, db)
	assert.Equal(t, domain.NotifyStatusSent, rec.Status)
	assert.Equal(t, domain.NotifyOrderCreated, rec.Kind)
	assert.NotNil(t, rec.SentAt)
}

func TestDispatcher_FailureIsRecordedAndRetried(t *testing.T) {
	fake := &fakeNotifier{fail: true}
	d, db := newTestDispatcher(t, fake)
	ctx := context.Background()

	order := testOrder()
	order.Status = domain.OrderShipped
	d.StatusChanged(order, domain.OrderProcessing)
	d.Wait()

	rec := lastLog(t, db)
	assert.Equal(t, domain.NotifyStatusFailed, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.Contains(t, rec.ErrorMsg, "connection refused")

	fake.setFail(false)
	sent, err := d.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, fake.statuses, 1)
	assert.Equal(t, domain.OrderShipped, fake.statuses[0].To)
	assert.Equal(t, domain.OrderProcessing, fake.statuses[0].From)
	assert.Equal(t, domain.NotifyStatusSent, lastLog(t, db).Status)

	sent, err = d.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestDispatcher_StopsAfterMaxRetries(t *testing.T) {
	fake := &fakeNotifier{fail: true}
	d, db := newTestDispatcher(t, fake)
	ctx := context.Background()

	d.OrderCreated(testOrder())
	d.Wait()
	for i := 0; i < 5; i++ {
		_, err := d.RetryFailed(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, lastLog(t, db).RetryCount)
	assert.Equal(t, 3, fake.callCount())
}

func TestDispatcher_SkipsMissingRecipient(t *testing.T) {
	fake := &fakeNotifier{}
	d, db := newTestDispatcher(t, fake)

	order := testOrder()
	order.CustomerEmail = ""
	d.OrderCreated(order)
	d.Wait()

	var n int64
	require.NoError(t, db.Model(&domain.NotifyLog{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 0, fake.callCount())
}

func TestDispatcher_RetriesStalePending(t *testing.T) {
	fake := &fakeNotifier{}
	d, db := newTestDispatcher(t, fake)

	payload, err := json.Marshal(NewOrderSummary(testOrder(), ""))
	require.NoError(t, err)
	old := time.Now().Add(-10 * time.Minute)
	require.NoError(t, db.Create(&domain.NotifyLog{
		ID: common.UUIDint64(), Kind: domain.NotifyOrderCreated, Recipient: "buyer@example.com",
		Payload: string(payload), Status: domain.NotifyStatusPending, CreatedAt: old, UpdatedAt: old,
	}).Error)
	fresh := time.Now()
	require.NoError(t, db.Create(&domain.NotifyLog{
		ID: common.UUIDint64(), Kind: domain.NotifyOrderCreated, Recipient: "buyer@example.com",
		Payload: string(payload), Status: domain.NotifyStatusPending, CreatedAt: fresh, UpdatedAt: fresh,
	}).Error)

	sent, err := d.RetryFailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "fresh pending rows may still be in flight")
}

func TestDispatcher_PurgeSent(t *testing.T) {
	d, db := newTestDispatcher(t, &fakeNotifier{})
	old := time.Now().AddDate(0, 0, -120)
	for _, status := range []string{domain.NotifyStatusSent, domain.NotifyStatusFailed} {
		require.NoError(t, db.Create(&domain.NotifyLog{
			ID: common.UUIDint64(), Kind: domain.NotifyOrderCreated, Status: status, CreatedAt: old, UpdatedAt: old,
		}).Error)
	}

	n, err := d.PurgeSent(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	require.NoError(t, db.Model(&domain.NotifyLog{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) NotifyOrderCreated(_ context.Context, _ string, _ OrderSummary) error {
	b.started <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingNotifier) NotifyStatusChanged(_ context.Context, _ string, _ StatusUpdate) error {
	return nil
}

func TestDispatcher_BusyPoolLeavesPendingRow(t *testing.T) {
	db := newTestDB(t)
	n := &blockingNotifier{started: make(chan struct{}, 1), release: make(chan struct{})}
	d, err := NewDispatcher(db, n, DispatcherOptions{Workers: 1, MaxRetries: 3})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	first, second := testOrder(), testOrder()
	d.OrderCreated(first)
	select {
	case <-n.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started")
	}

	// the only worker is busy, so the second send is parked in the outbox
	d.OrderCreated(second)
	var parked domain.NotifyLog
	require.NoError(t, db.Where("order_id = ?", second.ID).First(&parked).Error)
	assert.Equal(t, domain.NotifyStatusPending, parked.Status)

	close(n.release)
	d.Wait()

	var sent domain.NotifyLog
	require.NoError(t, db.Where("order_id = ?", first.ID).First(&sent).Error)
	assert.Equal(t, domain.NotifyStatusSent, sent.Status)
	require.NoError(t, db.Where("order_id = ?", second.ID).First(&parked).Error)
	assert.Equal(t, domain.NotifyStatusPending, parked.Status)
}
