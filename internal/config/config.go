package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ecomdash/backoffice/internal/logger"
)

// envKeyReplacer maps nested viper keys to env var segments,
// e.g. remote.base_url -> BACKOFFICE_REMOTE_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutDownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
}

// RemoteConfig holds the settings for the upstream commerce API.
type RemoteConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FetchLimit     int           `mapstructure:"fetch_limit"`
	BearerToken    string        `mapstructure:"bearer_token"`
	TokenFile      string        `mapstructure:"token_file"`
}

// ViewConfig holds the list-view defaults and cache sizing.
type ViewConfig struct {
	PageSize           int           `mapstructure:"page_size"`
	SearchDebounce     time.Duration `mapstructure:"search_debounce"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity      int           `mapstructure:"cache_capacity"`
	CacheShards        int           `mapstructure:"cache_shards"`
	CacheEvictionPct   int           `mapstructure:"cache_eviction_pct"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
}

// MiscConfig holds runtime knobs that do not belong to a subsystem.
type MiscConfig struct {
	GinMode  string `mapstructure:"gin_mode"`
	LogLevel string `mapstructure:"log_level"`
}

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Remote RemoteConfig `mapstructure:"remote"`
	View   ViewConfig   `mapstructure:"view"`
	Misc   MiscConfig   `mapstructure:"misc"`
}

// LoadConfig reads config.yaml (if present), applies env overrides and defaults,
// and returns a validated Config.
// Environment variables like BACKOFFICE_SERVER_PORT override server.port.
func LoadConfig() (*Config, error) {
	// .env is optional; real env vars always win.
	if err := godotenv.Load(); err == nil {
		logger.WithComponent("config").Debug("loaded .env file")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(envKeyReplacer)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.WithComponent("config").Info("no config file found, using defaults and env vars")
		} else {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 35*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("remote.request_timeout", 30*time.Second)
	v.SetDefault("remote.fetch_limit", 500)

	v.SetDefault("view.page_size", 10)
	v.SetDefault("view.search_debounce", 500*time.Millisecond)
	v.SetDefault("view.cache_ttl", 5*time.Minute)
	v.SetDefault("view.cache_capacity", 10000)
	v.SetDefault("view.cache_shards", 64)
	v.SetDefault("view.cache_eviction_pct", 10)
	v.SetDefault("view.session_idle_timeout", 30*time.Minute)

	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.log_level", "info")
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutDownTimeout,
		"remote.request_timeout":  c.Remote.RequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Remote.BaseURL == "" {
		return errors.New("remote.base_url is required")
	}
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.FetchLimit < 1 {
		return fmt.Errorf("remote.fetch_limit must be positive, got %d", c.Remote.FetchLimit)
	}

	if c.View.PageSize < 1 {
		return fmt.Errorf("view.page_size must be positive, got %d", c.View.PageSize)
	}
	if c.View.SearchDebounce < 0 {
		return errors.New("view.search_debounce must not be negative")
	}
	if c.View.CacheTTL <= 0 {
		return errors.New("view.cache_ttl must be positive")
	}
	if c.View.CacheCapacity < 1 {
		return fmt.Errorf("view.cache_capacity must be positive, got %d", c.View.CacheCapacity)
	}
	if c.View.CacheShards < 1 {
		return fmt.Errorf("view.cache_shards must be positive, got %d", c.View.CacheShards)
	}
	if c.View.CacheEvictionPct < 1 || c.View.CacheEvictionPct > 100 {
		return fmt.Errorf("view.cache_eviction_pct must be between 1 and 100, got %d", c.View.CacheEvictionPct)
	}
	return nil
}
