package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/notify"
	"github.com/talkincode/storefront/internal/orders"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	configManager *ConfigManager
	dispatcher    *notify.Dispatcher
	orderService  *orders.Service
	jobs          []*scheduledJob
}

// Ensure Application implements all interfaces
var (
	_ DBProvider            = (*Application)(nil)
	_ ConfigProvider        = (*Application)(nil)
	_ SettingsProvider      = (*Application)(nil)
	_ SchedulerProvider     = (*Application)(nil)
	_ ConfigManagerProvider = (*Application)(nil)
	_ OrderServiceProvider  = (*Application)(nil)
	_ AppContext            = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Init(cfg *config.AppConfig) error {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := cfg.InitDirs(); err != nil {
		return errors.Wrap(err, "create work directories")
	}

	initLogger(cfg.Logger)

	if a.gormDB == nil {
		if cfg.Database.Type == "" {
			cfg.Database.Type = "postgres"
		}
		a.gormDB, err = getDatabase(cfg.Database, cfg.GetDataDir())
		if err != nil {
			return err
		}
		zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
	}

	if err := a.MigrateDB(false); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	a.checkSuper()
	a.checkSettings()
	if cfg.System.SeedDemo {
		a.checkDemoCatalog()
	}

	a.configManager = NewConfigManager(a.gormDB)

	a.dispatcher, err = notify.NewDispatcher(a.gormDB, notify.NewNotifier(cfg.Mail), notify.DispatcherOptions{
		Workers:     cfg.Checkout.NotifyWorkers,
		MaxRetries:  cfg.Checkout.NotifyMaxRetries,
		FrontendURL: cfg.Web.FrontendURL,
	})
	if err != nil {
		return err
	}

	a.orderService = orders.NewService(a.gormDB, a.dispatcher, orders.Options{
		StrictTransitions: cfg.Checkout.StrictTransitions,
		MinAddressLength:  cfg.Checkout.MinAddressLength,
	})

	a.initJob()
	return nil
}

func initLogger(cfg config.LogConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
	a.checkSuper()
	a.checkSettings()
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Orders() *orders.Service {
	return a.orderService
}

func (a *Application) Notifications() *notify.Dispatcher {
	return a.dispatcher
}

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	return a.configManager.GetString(category, key)
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return a.configManager.GetInt64(category, key)
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return a.configManager.GetBool(category, key)
}

// SaveSettings applies a partial update of the store settings
func (a *Application) SaveSettings(settings map[string]interface{}) error {
	_, err := a.configManager.SaveStoreSettings(settings)
	return err
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
