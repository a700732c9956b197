package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database config
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig System config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
	SeedDemo bool   `yaml:"seed_demo"` // populate a demo catalog on first start
}

// WebConfig Web server config
type WebConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Secret      string `yaml:"secret"`       // JWT signing secret
	TokenExpire int    `yaml:"token_expire"` // hours
	FrontendURL string `yaml:"frontend_url"`
	UploadDir   string `yaml:"upload_dir"`
}

// LogConfig Logger config
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// MailConfig SMTP delivery settings. An empty Host disables SMTP and notifications are only logged.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	SSL      bool   `yaml:"ssl"`
}

// CheckoutConfig order placement and notification tuning
type CheckoutConfig struct {
	MinAddressLength  int  `yaml:"min_address_length"`
	StrictTransitions bool `yaml:"strict_transitions"`
	NotifyWorkers     int  `yaml:"notify_workers"`
	NotifyMaxRetries  int  `yaml:"notify_max_retries"`
	NotifyLogDays     int  `yaml:"notify_log_days"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Database DBConfig       `yaml:"database"`
	Logger   LogConfig      `yaml:"logger"`
	Mail     MailConfig     `yaml:"mail"`
	Checkout CheckoutConfig `yaml:"checkout"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetUploadDir() string {
	if c.Web.UploadDir != "" {
		return c.Web.UploadDir
	}
	return filepath.Join(c.System.Workdir, "uploads")
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir(), c.GetUploadDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// DefaultAppConfig returns a configuration that runs against a local SQLite file.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "Storefront",
			Location: "UTC",
			Workdir:  "/var/storefront",
			Debug:    true,
		},
		Web: WebConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			Secret:      "9b6de5cc-0731-4f5c-bd6f-3a1e8a1c3a11",
			TokenExpire: 24 * 7,
			FrontendURL: "http://localhost:3000",
		},
		Database: DBConfig{
			Type:     "sqlite",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "storefront.db",
			User:     "postgres",
			Passwd:   "postgres",
			MaxConn:  100,
			IdleConn: 10,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/storefront/logs/storefront.log",
		},
		Mail: MailConfig{
			Port: 587,
			From: "ShopApp <no-reply@localhost>",
		},
		Checkout: CheckoutConfig{
			MinAddressLength:  10,
			StrictTransitions: true,
			NotifyWorkers:     8,
			NotifyMaxRetries:  3,
			NotifyLogDays:     90,
		},
	}
}

// LoadConfig reads the yaml file (when present) over the defaults and applies environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvString("STOREFRONT_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvString("STOREFRONT_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBool("STOREFRONT_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvBool("STOREFRONT_SYSTEM_SEED_DEMO", &cfg.System.SeedDemo)

	setEnvString("STOREFRONT_WEB_HOST", &cfg.Web.Host)
	setEnvInt("STOREFRONT_WEB_PORT", &cfg.Web.Port)
	setEnvString("STOREFRONT_WEB_SECRET", &cfg.Web.Secret)
	setEnvString("STOREFRONT_FRONTEND_URL", &cfg.Web.FrontendURL)

	setEnvString("STOREFRONT_DB_TYPE", &cfg.Database.Type)
	setEnvString("STOREFRONT_DB_HOST", &cfg.Database.Host)
	setEnvInt("STOREFRONT_DB_PORT", &cfg.Database.Port)
	setEnvString("STOREFRONT_DB_NAME", &cfg.Database.Name)
	setEnvString("STOREFRONT_DB_USER", &cfg.Database.User)
	setEnvString("STOREFRONT_DB_PWD", &cfg.Database.Passwd)
	setEnvBool("STOREFRONT_DB_DEBUG", &cfg.Database.Debug)

	setEnvString("STOREFRONT_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBool("STOREFRONT_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvString("STOREFRONT_MAIL_HOST", &cfg.Mail.Host)
	setEnvInt("STOREFRONT_MAIL_PORT", &cfg.Mail.Port)
	setEnvString("STOREFRONT_MAIL_USERNAME", &cfg.Mail.Username)
	setEnvString("STOREFRONT_MAIL_PASSWORD", &cfg.Mail.Password)
	setEnvString("STOREFRONT_MAIL_FROM", &cfg.Mail.From)

	setEnvBool("STOREFRONT_CHECKOUT_STRICT_TRANSITIONS", &cfg.Checkout.StrictTransitions)
}

func setEnvString(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvInt(name string, val *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			*val = n
		}
	}
}

func setEnvBool(name string, val *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*val = b
		}
	}
}
