package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:"127.0.0.1:8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	StorePath       string `envconfig:"STORE_PATH" default:"data/zamzam_pos_storage.db"`
	BackupPath      string `envconfig:"BACKUP_PATH" default:"data/zamzam_pos.db_backup"`
	BackupRedisAddr string `envconfig:"BACKUP_REDIS_ADDR"`

	CacheRedisAddr string        `envconfig:"CACHE_REDIS_ADDR"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	Timezone string `envconfig:"TIMEZONE" default:"Local"`
	Currency string `envconfig:"CURRENCY" default:"PKR"`
	SeedMenu bool   `envconfig:"SEED_MENU" default:"true"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`
	ExportsPerMinute   int      `envconfig:"EXPORTS_PER_MINUTE" default:"10"`

	ShopName    string `envconfig:"SHOP_NAME" default:"Zam Zam Ice Bar"`
	ShopPhone   string `envconfig:"SHOP_PHONE"`
	ShopAddress string `envconfig:"SHOP_ADDRESS"`

	location *time.Location
}

// LoadConfig reads an optional .env file, then configuration from
// environment variables. Variables already set win over the file.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("app: load %s: %w", file, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("app: LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New("app: STORE_PATH must be provided")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("app: RATE_LIMIT_PER_MINUTE must be positive")
	}
	loc, err := shared.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("app: TIMEZONE: %w", err)
	}
	c.location = loc
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Location is the zone every day bucket is computed in.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.Local
	}
	return c.location
}

// ShopInfo is the receipt header shown by the till.
type ShopInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Shop returns the configured shop header.
func (c *Config) Shop() ShopInfo {
	if c == nil {
		return ShopInfo{}
	}
	return ShopInfo{Name: c.ShopName, Phone: c.ShopPhone, Address: c.ShopAddress}
}
