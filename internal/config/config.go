package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Market    MarketConfig    `mapstructure:"market"`
	Warm      WarmConfig      `mapstructure:"warm"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	StaticDir    string        `mapstructure:"static_dir"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type CacheConfig struct {
	QuoteTTL       time.Duration `mapstructure:"quote_ttl"`
	ChainTTL       time.Duration `mapstructure:"chain_ttl"`
	ExpirationsTTL time.Duration `mapstructure:"expirations_ttl"`
}

type BufferConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	Capacity  int           `mapstructure:"capacity"`
}

type AnalyticsConfig struct {
	HotLookback time.Duration `mapstructure:"hot_lookback"`
	HotTop      int           `mapstructure:"hot_top"`
}

type MarketConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type WarmConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Keys     []string      `mapstructure:"keys"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from defaults, an optional YAML file and CHAINVIEW_* env vars.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("cache.quote_ttl", "10s")
	v.SetDefault("cache.chain_ttl", "60s")
	v.SetDefault("cache.expirations_ttl", "5m")
	v.SetDefault("buffer.retention", "5m")
	v.SetDefault("buffer.capacity", 128)
	v.SetDefault("analytics.hot_lookback", "5m")
	v.SetDefault("analytics.hot_top", 8)
	v.SetDefault("market.timezone", "America/New_York")
	v.SetDefault("warm.enabled", false)
	v.SetDefault("warm.interval", "15s")
	v.SetDefault("warm.keys", []string{"SPX:dte:0"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	// Environment variable support
	v.SetEnvPrefix("CHAINVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// PORT is what most hosts inject
	_ = v.BindEnv("server.port", "CHAINVIEW_SERVER_PORT", "PORT")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("chainview")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Cache.QuoteTTL <= 0 || c.Cache.ChainTTL <= 0 || c.Cache.ExpirationsTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.Buffer.Capacity < 1 {
		return fmt.Errorf("buffer.capacity must be >= 1")
	}
	if c.Buffer.Retention <= 0 {
		return fmt.Errorf("buffer.retention must be positive")
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	if c.Warm.Enabled {
		if c.Warm.Interval <= 0 {
			return fmt.Errorf("warm.interval must be positive")
		}
		if _, err := ParseWarmKeys(c.Warm.Keys); err != nil {
			return err
		}
	}
	return nil
}

// Location returns the market time zone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
