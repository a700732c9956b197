package app

import (
	_ "embed"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const StoreCategory = "store"

//go:embed config_schemas.json
var configSchemasData []byte

// ConfigSchema one runtime setting with its default
type ConfigSchema struct {
	Key         string `json:"key"` // category.name
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

type ConfigSchemasJSON struct {
	Schemas []ConfigSchema `json:"schemas"`
}

func loadConfigSchemas() ([]ConfigSchema, error) {
	var data ConfigSchemasJSON
	if err := jsoniter.Unmarshal(configSchemasData, &data); err != nil {
		return nil, err
	}
	return data.Schemas, nil
}

// StoreSettings the runtime settings exposed to the storefront and editable by admins
type StoreSettings struct {
	StoreName         string `json:"store_name" mapstructure:"store_name"`
	AdminPhoneNumber  string `json:"admin_phone_number" mapstructure:"admin_phone_number"`
	WhatsAppMessage   string `json:"whatsapp_message" mapstructure:"whatsapp_message"`
	LowStockThreshold int    `json:"low_stock_threshold" mapstructure:"low_stock_threshold"`
}

// ConfigManager caches sys_config rows keyed by "category.name"
type ConfigManager struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]string
}

func NewConfigManager(db *gorm.DB) *ConfigManager {
	m := &ConfigManager{db: db, cache: make(map[string]string)}
	m.Reload()
	return m
}

// Reload replaces the cache with the current table contents, schema defaults first
func (m *ConfigManager) Reload() {
	values := make(map[string]string)
	if schemas, err := loadConfigSchemas(); err == nil {
		for _, s := range schemas {
			values[s.Key] = s.Default
		}
	}
	var rows []domain.SysConfig
	if err := m.db.Find(&rows).Error; err != nil {
		zap.L().Error("load sys_config", zap.Error(err))
	}
	for _, r := range rows {
		values[r.Type+"."+r.Name] = r.Value
	}
	m.mu.Lock()
	m.cache = values
	m.mu.Unlock()
}

func (m *ConfigManager) GetString(category, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache[category+"."+key]
}

func (m *ConfigManager) GetInt(category, key string) int {
	return cast.ToInt(m.GetString(category, key))
}

func (m *ConfigManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(m.GetString(category, key))
}

func (m *ConfigManager) GetBool(category, key string) bool {
	return cast.ToBool(m.GetString(category, key))
}

// Set upserts one value and refreshes the cache entry
func (m *ConfigManager) Set(category, key, value string) error {
	var row domain.SysConfig
	err := m.db.Where("type = ? AND name = ?", category, key).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = m.db.Create(&domain.SysConfig{ID: common.UUIDint64(), Type: category, Name: key, Value: value}).Error
	case err == nil:
		err = m.db.Model(&domain.SysConfig{}).Where("id = ?", row.ID).Update("value", value).Error
	}
	if err != nil {
		return errors.Wrapf(err, "save setting %s.%s", category, key)
	}
	m.mu.Lock()
	m.cache[category+"."+key] = value
	m.mu.Unlock()
	return nil
}

func (m *ConfigManager) StoreSettings() StoreSettings {
	return StoreSettings{
		StoreName:         m.GetString(StoreCategory, "store_name"),
		AdminPhoneNumber:  m.GetString(StoreCategory, "admin_phone_number"),
		WhatsAppMessage:   m.GetString(StoreCategory, "whatsapp_message"),
		LowStockThreshold: m.GetInt(StoreCategory, "low_stock_threshold"),
	}
}

// SaveStoreSettings merges a partial update over the current settings. Unknown keys and
// values of the wrong kind are rejected before anything is written.
func (m *ConfigManager) SaveStoreSettings(update map[string]interface{}) (StoreSettings, error) {
	settings := m.StoreSettings()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return settings, err
	}
	if err := dec.Decode(update); err != nil {
		return settings, errors.Wrap(err, "invalid settings")
	}
	settings.StoreName = strings.TrimSpace(settings.StoreName)
	settings.AdminPhoneNumber = strings.TrimSpace(settings.AdminPhoneNumber)
	if settings.LowStockThreshold < 0 {
		return settings, errors.New("invalid settings: low_stock_threshold must not be negative")
	}

	var values map[string]interface{}
	if err := mapstructure.Decode(settings, &values); err != nil {
		return settings, err
	}
	for key := range update {
		if err := m.Set(StoreCategory, key, cast.ToString(values[key])); err != nil {
			return settings, err
		}
	}
	return settings, nil
}
