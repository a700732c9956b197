package app

import (
	"github.com/robfig/cron/v3"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/notify"
	"github.com/talkincode/storefront/internal/orders"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
	SaveSettings(settings map[string]interface{}) error
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
	Jobs() []JobInfo
	RunJobNow(name string) error
}

// ConfigManagerProvider provides configuration manager access
type ConfigManagerProvider interface {
	ConfigMgr() *ConfigManager
}

// OrderServiceProvider exposes the checkout core and its notification dispatcher
type OrderServiceProvider interface {
	Orders() *orders.Service
	Notifications() *notify.Dispatcher
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ConfigManagerProvider
	OrderServiceProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
