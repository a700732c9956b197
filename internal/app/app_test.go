package app

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
)

func newTestApp(t *testing.T, seedDemo bool) *Application {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.System.SeedDemo = seedDemo
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "app.db"
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	t.Cleanup(a.Release)
	return a
}

func TestInit_SeedsAdminAndSettings(t *testing.T) {
	a := newTestApp(t, false)

	var admin domain.ShopUser
	require.NoError(t, a.DB().Where("email = ?", SuperEmail).First(&admin).Error)
	assert.True(t, common.IsAdmin(admin.Role))
	assert.True(t, common.CheckPassword(admin.Password, defaultPassword))

	assert.Equal(t, "ShopApp", a.GetSettingsStringValue(StoreCategory, "store_name"))
	assert.Equal(t, int64(10), a.GetSettingsInt64Value(StoreCategory, "low_stock_threshold"))
	assert.NotNil(t, a.Orders())
	assert.NotNil(t, a.Notifications())
	registered := map[string]bool{}
	for _, j := range a.Jobs() {
		registered[j.Name] = !j.Next.IsZero()
	}
	for _, name := range []string{"notify_retry", "low_stock", "purge_notify_logs", "process_monitor"} {
		assert.True(t, registered[name], name)
	}
	assert.Len(t, a.Scheduler().Entries(), len(registered))

	var products int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&products).Error)
	assert.Equal(t, int64(0), products)
}

func TestCheckSuper_RepairsRole(t *testing.T) {
	a := newTestApp(t, false)
	require.NoError(t, a.DB().Model(&domain.ShopUser{}).Where("email = ?", SuperEmail).
		Update("role", common.RoleCustomer).Error)

	a.checkSuper()

	var admin domain.ShopUser
	require.NoError(t, a.DB().Where("email = ?", SuperEmail).First(&admin).Error)
	assert.Equal(t, common.RoleAdmin, admin.Role)
}

func TestDemoCatalogAndLowStock(t *testing.T) {
	a := newTestApp(t, true)

	var products, categories int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&products).Error)
	require.NoError(t, a.DB().Model(&domain.Category{}).Count(&categories).Error)
	assert.Equal(t, int64(6), products)
	assert.Equal(t, int64(3), categories)

	// seeding again is a no-op
	a.checkDemoCatalog()
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&products).Error)
	assert.Equal(t, int64(6), products)

	n, err := a.CountLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, a.SaveSettings(map[string]interface{}{"low_stock_threshold": "4"}))
	n, err = a.CountLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSaveStoreSettings(t *testing.T) {
	a := newTestApp(t, false)
	mgr := a.ConfigMgr()

	s, err := mgr.SaveStoreSettings(map[string]interface{}{
		"admin_phone_number":  " +15551234567 ",
		"low_stock_threshold": 3.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", s.AdminPhoneNumber)
	assert.Equal(t, 3, s.LowStockThreshold)
	assert.Equal(t, "ShopApp", s.StoreName)

	// survives a reload from the table
	mgr.Reload()
	assert.Equal(t, "+15551234567", mgr.StoreSettings().AdminPhoneNumber)
	assert.Equal(t, 3, mgr.StoreSettings().LowStockThreshold)

	_, err = mgr.SaveStoreSettings(map[string]interface{}{"unknown": "x"})
	assert.Error(t, err)
	_, err = mgr.SaveStoreSettings(map[string]interface{}{"low_stock_threshold": -1})
	assert.Error(t, err)
	assert.Equal(t, 3, mgr.StoreSettings().LowStockThreshold)
}

func TestInitDb_RecreatesSchema(t *testing.T) {
	a := newTestApp(t, true)
	a.InitDb()

	var products, admins int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&products).Error)
	require.NoError(t, a.DB().Model(&domain.ShopUser{}).Count(&admins).Error)
	assert.Equal(t, int64(0), products)
	assert.Equal(t, int64(1), admins)
}

func TestJobs(t *testing.T) {
	a := newTestApp(t, false)
	jobs := a.Jobs()
	require.Len(t, jobs, 4)
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name)
		assert.False(t, j.Next.IsZero(), j.Name)
	}
	assert.ElementsMatch(t, []string{"notify_retry", "low_stock", "purge_notify_logs", "process_monitor"}, names)

	assert.NoError(t, a.RunJobNow("low_stock"))
	assert.NoError(t, a.RunJobNow("process_monitor"))
	assert.Error(t, a.RunJobNow("nope"))
}

func TestRunJobNow_RefusesOverlap(t *testing.T) {
	a := newTestApp(t, false)
	<-a.Scheduler().Stop().Done()
	var job *scheduledJob
	for _, j := range a.jobs {
		if j.name == "notify_retry" {
			job = j
		}
	}
	require.NotNil(t, job)

	calls := 0
	job.fn = func() { calls++ }

	job.mu.Lock()
	err := a.RunJobNow("notify_retry")
	assert.True(t, errors.Is(err, ErrJobRunning))
	assert.False(t, job.tryRun(), "a cron tick must skip while a run is in progress")
	job.mu.Unlock()
	assert.Equal(t, 0, calls)

	require.NoError(t, a.RunJobNow("notify_retry"))
	assert.Equal(t, 1, calls)
}
