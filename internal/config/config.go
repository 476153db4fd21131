package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeOnce  = "once"
	ModeServe = "serve"

	// MaxLimit is the largest per-provider article count a run may request.
	MaxLimit = 50
)

// Config holds the application configuration loaded from flags, files and environment variables.
type Config struct {
	AppName            string        `mapstructure:"app_name"`
	Env                string        `mapstructure:"app_env"`
	LogLevel           string        `mapstructure:"log_level"`
	ProvidersFile      string        `mapstructure:"providers_file"`
	PublishersFile     string        `mapstructure:"publishers_file"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	ScrapeRetries      int           `mapstructure:"scrape_retries"`
	UserAgent          string        `mapstructure:"user_agent"`
	ScrapeWorkers      int           `mapstructure:"scrape_workers"`
	Enrich             bool          `mapstructure:"enrich"`

	Mode                   string        `mapstructure:"mode"`
	Category               string        `mapstructure:"category"`
	Source                 string        `mapstructure:"source"`
	Limit                  int           `mapstructure:"limit"`
	ListenAddr             string        `mapstructure:"listen_addr"`
	RefreshIntervalSeconds int64         `mapstructure:"refresh_interval_seconds"`
	RefreshInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password"`
	RedisDB                int           `mapstructure:"redis_db"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	PatchTTLSeconds        int64         `mapstructure:"patch_ttl_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	PatchTTL               time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from command-line args, environment variables and config files.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "khobor-aggregator")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("scrape_retries", 2)
	v.SetDefault("user_agent", "Mozilla/5.0 (compatible; khobor-aggregator/1.0)")
	v.SetDefault("scrape_workers", 4)
	v.SetDefault("enrich", true)
	v.SetDefault("mode", ModeOnce)
	v.SetDefault("category", "Technology")
	v.SetDefault("source", "All")
	v.SetDefault("limit", 0)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("refresh_interval_seconds", 0)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/cache.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))
	v.SetDefault("patch_ttl_seconds", int64((12*time.Hour)/time.Second))

	fs := pflag.NewFlagSet("aggregator", pflag.ContinueOnError)
	fs.String("mode", ModeOnce, "run mode: once | serve")
	fs.String("category", "Technology", "category / query sent to providers")
	fs.String("source", "All", `provider display name or "All"`)
	fs.Int("limit", 0, "articles per provider (1-50); 0 uses each provider's page_size")
	fs.String("listen_addr", ":8080", "http listen address in serve mode")
	fs.String("log_level", "info", "log level")
	fs.Bool("enrich", true, "scrape article pages to backfill missing fields")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode != ModeOnce && cfg.Mode != ModeServe {
		return nil, fmt.Errorf("invalid mode %q (expected %s or %s)", cfg.Mode, ModeOnce, ModeServe)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.RefreshIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid refresh_interval_seconds (must be zero or positive seconds)")
	}
	cfg.RefreshInterval = time.Duration(cfg.RefreshIntervalSeconds) * time.Second

	if cfg.ScrapeRetries < 0 {
		return nil, fmt.Errorf("invalid scrape_retries (must be zero or positive)")
	}

	if cfg.Limit < 0 || cfg.Limit > MaxLimit {
		return nil, fmt.Errorf("invalid limit %d (expected 0 to %d)", cfg.Limit, MaxLimit)
	}

	if cfg.ScrapeWorkers <= 0 {
		return nil, fmt.Errorf("invalid scrape_workers (must be positive)")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	if cfg.PatchTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid patch_ttl_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.PatchTTL = time.Duration(cfg.PatchTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
