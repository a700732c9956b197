package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/talkincode/storefront/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// getDatabase opens the configured database. Relative sqlite names live in dataDir.
func getDatabase(cfg config.DBConfig, dataDir string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// products may have no category
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if cfg.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(cfg.Type) {
	case "sqlite", "sqlite3":
		name := cfg.Name
		if name != ":memory:" && !filepath.IsAbs(name) {
			name = filepath.Join(dataDir, name)
		}
		db, err = gorm.Open(sqlite.Open(name+"?_busy_timeout=5000"), gcfg)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
	default:
		return nil, errors.Errorf("unsupported database type %q", cfg.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
	}
	if cfg.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
