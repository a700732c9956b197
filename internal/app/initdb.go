package app

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SuperEmail      = "admin@storefront.local"
	defaultPassword = "storefront"
)

// checkSuper makes sure the default administrator exists and can log in
func (a *Application) checkSuper() {
	var admin domain.ShopUser
	err := a.gormDB.Where("email = ?", SuperEmail).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, err := common.HashPassword(defaultPassword)
		if err != nil {
			zap.L().Error("failed to hash default admin password", zap.Error(err))
			return
		}
		if err := a.gormDB.Create(&domain.ShopUser{
			ID:        common.UUIDint64(),
			Email:     SuperEmail,
			Password:  hashed,
			FirstName: "Store",
			LastName:  "Admin",
			Role:      common.RoleAdmin,
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("email", SuperEmail))
		}
		return
	case err != nil:
		zap.L().Error("failed to query default admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(admin.Password) == ""
	resetRole := !common.IsAdmin(admin.Role)
	if !resetPassword && !resetRole {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		hashed, err := common.HashPassword(defaultPassword)
		if err != nil {
			zap.L().Error("failed to hash default admin password", zap.Error(err))
			return
		}
		updates["password"] = hashed
	}
	if resetRole {
		updates["role"] = common.RoleAdmin
	}
	if err := a.gormDB.Model(&domain.ShopUser{}).Where("id = ?", admin.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair default admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default admin account",
		zap.String("email", SuperEmail),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("roleReset", resetRole))
}

func (a *Application) checkSettings() {
	schemas, err := loadConfigSchemas()
	if err != nil {
		zap.L().Error("failed to load config schemas from JSON", zap.Error(err))
		return
	}

	for sortid, schema := range schemas {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}
		category, name := parts[0], parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := a.gormDB.Create(&domain.SysConfig{
			ID:     common.UUIDint64(),
			Sort:   sortid,
			Type:   category,
			Name:   name,
			Value:  schema.Default,
			Remark: schema.Description,
		}).Error; err != nil {
			zap.L().Error("failed to initialize config", zap.String("key", schema.Key), zap.Error(err))
			continue
		}
		zap.L().Info("initialized config",
			zap.String("key", schema.Key),
			zap.String("default", schema.Default))
	}
}

type demoProduct struct {
	name, category, price, image string
	stock                        int
	featured                     bool
}

// checkDemoCatalog seeds a small catalog on an empty database
func (a *Application) checkDemoCatalog() {
	var count int64
	a.gormDB.Model(&domain.Product{}).Count(&count)
	if count > 0 {
		return
	}

	categories := map[string]*domain.Category{
		"Electronics": {Name: "Electronics", Description: "Gadgets and devices", IconName: "laptop"},
		"Clothing":    {Name: "Clothing", Description: "Apparel and accessories", IconName: "shirt"},
		"Home":        {Name: "Home", Description: "Furniture and decor", IconName: "home"},
	}
	products := []demoProduct{
		{"Wireless Headphones", "Electronics", "89.99", "/uploads/demo/headphones.jpg", 25, true},
		{"Smart Watch", "Electronics", "199.00", "/uploads/demo/watch.jpg", 8, true},
		{"USB-C Charger", "Electronics", "19.99", "/uploads/demo/charger.jpg", 120, false},
		{"Cotton T-Shirt", "Clothing", "19.99", "/uploads/demo/tshirt.jpg", 60, false},
		{"Wool Socks", "Clothing", "5.00", "/uploads/demo/socks.jpg", 200, false},
		{"Desk Lamp", "Home", "34.50", "/uploads/demo/lamp.jpg", 5, true},
	}

	err := a.gormDB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, c := range categories {
			c.ID = common.UUIDint64()
			c.IsActive = true
			c.CreatedAt, c.UpdatedAt = now, now
			if err := tx.Create(c).Error; err != nil {
				return err
			}
		}
		for _, p := range products {
			if err := tx.Create(&domain.Product{
				ID:         common.UUIDint64(),
				CategoryID: categories[p.category].ID,
				Name:       p.name,
				Price:      decimal.RequireFromString(p.price),
				Stock:      p.stock,
				ImageURL:   p.image,
				Featured:   p.featured,
				IsActive:   true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		zap.L().Error("failed to seed demo catalog", zap.Error(err))
		return
	}
	zap.L().Info("initialized demo catalog", zap.Int("products", len(products)))
}
