package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration read from config.yaml and
// overlaid with environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	Storage   StorageConfig   `yaml:"storage"`
	Admin     AdminConfig     `yaml:"admin"`
	Mail      MailConfig      `yaml:"mail"`
	Relay     RelayConfig     `yaml:"relay"`
	Contact   ContactConfig   `yaml:"contact"`
	PriceList PriceListConfig `yaml:"pricelist"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	Prefork        bool     `yaml:"prefork"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// StorageConfig selects the key/value backend holding the catalog and the
// per-browser admin flags.
type StorageConfig struct {
	Driver    string         `yaml:"driver"` // memory, redis, postgres, bolt
	RedisHost string         `yaml:"redis_host"`
	RedisDB   int            `yaml:"redis_db"`
	BoltPath  string         `yaml:"bolt_path"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AdminConfig configures the admin gate. The password is a UX gate for the
// catalog editor, not an access control mechanism.
type AdminConfig struct {
	Password      string        `yaml:"password"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type MailConfig struct {
	SMTPHost string        `yaml:"smtp_host"`
	SMTPPort int           `yaml:"smtp_port"`
	SMTPUser string        `yaml:"smtp_user"`
	SMTPPass string        `yaml:"smtp_pass"`
	From     string        `yaml:"from"`
	To       string        `yaml:"to"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RelayConfig struct {
	// Endpoint is where the budget form posts to. Empty means this process.
	Endpoint     string        `yaml:"endpoint"`
	RateLimit    int           `yaml:"rate_limit"`
	RateInterval time.Duration `yaml:"rate_interval"`
}

type ContactConfig struct {
	WhatsAppNumber string `yaml:"whatsapp_number"`
}

type PriceListConfig struct {
	Enabled         bool          `yaml:"enabled"`
	ChromePath      string        `yaml:"chrome_path"`
	ChromeNoSandbox bool          `yaml:"chrome_no_sandbox"`
	TimeoutSecs     int           `yaml:"timeout_secs"`
	PaperWidth      float64       `yaml:"paper_width"`
	PaperHeight     float64       `yaml:"paper_height"`
	Margin          float64       `yaml:"margin"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RedisHost       string        `yaml:"redis_host"`
	RedisDB         int           `yaml:"redis_db"`
}

const defaultAdminPassword = "arkana!77"

// AppConfig holds the configuration loaded by LoadConfig.
var AppConfig Config

// GetConfig returns the configuration loaded by LoadConfig.
func GetConfig() Config {
	return AppConfig
}

// LoadConfig reads the file named by CONFIG_PATH (default config.yaml). A
// missing default file is not an error; the environment alone can configure
// the site.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := finish(Config{})
			AppConfig = cfg
			return cfg
		}
	}
	cfg := LoadFrom(path)
	AppConfig = cfg
	return cfg
}

// LoadFrom reads and validates the YAML file at path. It panics on unreadable
// files and invalid values.
func LoadFrom(path string) Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	return finish(cfg)
}

func finish(cfg Config) Config {
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		panic("config: " + err.Error())
	}
	return cfg
}

// applyEnvOverrides lets the SMTP_*, EMAIL_* and site variables
// (and an optional .env file) override the YAML values.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = strings.TrimSpace(v.GetString(key))
		}
	}

	setString("SMTP_HOST", &cfg.Mail.SMTPHost)
	setString("SMTP_USER", &cfg.Mail.SMTPUser)
	setString("SMTP_PASS", &cfg.Mail.SMTPPass)
	setString("EMAIL_FROM", &cfg.Mail.From)
	setString("EMAIL_TO", &cfg.Mail.To)
	setString("ADMIN_PASSWORD", &cfg.Admin.Password)
	setString("SESSION_SECRET", &cfg.Admin.SessionSecret)
	setString("RELAY_ENDPOINT", &cfg.Relay.Endpoint)
	setString("WHATSAPP_NUMBER", &cfg.Contact.WhatsAppNumber)
	setString("CHROME_BIN", &cfg.PriceList.ChromePath)
	if v.IsSet("SMTP_PORT") {
		cfg.Mail.SMTPPort = v.GetInt("SMTP_PORT")
	}
	if v.IsSet("PORT") {
		cfg.Server.Port = ":" + strings.TrimPrefix(v.GetString("PORT"), ":")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":3001"
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = "arkana.db"
	}
	if cfg.Admin.Password == "" {
		cfg.Admin.Password = defaultAdminPassword
	}
	if cfg.Admin.SessionTTL == 0 {
		cfg.Admin.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = 30 * time.Second
	}
	if cfg.Relay.RateInterval == 0 {
		cfg.Relay.RateInterval = time.Hour
	}
	if cfg.Contact.WhatsAppNumber == "" {
		cfg.Contact.WhatsAppNumber = "5492257400465"
	}
	if cfg.PriceList.TimeoutSecs == 0 {
		cfg.PriceList.TimeoutSecs = 20
	}
	if cfg.PriceList.PaperWidth == 0 || cfg.PriceList.PaperHeight == 0 {
		cfg.PriceList.PaperWidth, cfg.PriceList.PaperHeight = 8.27, 11.69
	}
	if cfg.PriceList.Margin == 0 {
		cfg.PriceList.Margin = 0.4
	}
	if cfg.PriceList.CacheTTL == 0 {
		cfg.PriceList.CacheTTL = time.Hour
	}
}

func validate(cfg Config) error {
	switch cfg.Storage.Driver {
	case "memory", "redis", "postgres", "bolt":
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "redis" && cfg.Storage.RedisHost == "" {
		return errors.New("storage.redis_host is required for the redis driver")
	}
	if cfg.Relay.RateLimit < 0 {
		return errors.New("relay.rate_limit must not be negative")
	}
	if cfg.Relay.RateInterval < 0 {
		return errors.New("relay.rate_interval must be positive")
	}
	if cfg.Admin.SessionTTL < 0 {
		return errors.New("admin.session_ttl must be positive")
	}
	if cfg.Mail.SMTPPort < 0 || cfg.Mail.SMTPPort > 65535 {
		return fmt.Errorf("mail.smtp_port %d out of range", cfg.Mail.SMTPPort)
	}
	if cfg.PriceList.TimeoutSecs < 0 {
		return errors.New("pricelist.timeout_secs must be positive")
	}
	return nil
}

// RelayEndpoint returns the URL the budget form posts to.
func (c Config) RelayEndpoint() string {
	if c.Relay.Endpoint != "" {
		return c.Relay.Endpoint
	}
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + host + c.Server.Port + "/api/send-email"
}
