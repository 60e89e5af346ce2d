// Package config loads runtime settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the assistant.
type Config struct {
	Port         string `mapstructure:"port"`
	SecureCookie bool   `mapstructure:"secure_cookie"`

	DB       DBConfig       `mapstructure:"db"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
	Parser   ParserConfig   `mapstructure:"parser"`

	CoolingCheckInterval time.Duration     `mapstructure:"cooling_check_interval"`
	WeeklyStats          WeeklyStatsConfig `mapstructure:"weekly_stats"`
}

// DBConfig selects the database. Path is used by the sqlite driver when DSN is empty.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// AdminConfig seeds the first account on an empty database.
type AdminConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelegramConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BotToken     string        `mapstructure:"bot_token"`
	APIURL       string        `mapstructure:"api_url"`
	TestMode     bool          `mapstructure:"test_mode"`
	DedupeWindow time.Duration `mapstructure:"dedupe_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ParserConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// WeeklyStatsConfig sets when the weekly summary goes out, in UTC.
type WeeklyStatsConfig struct {
	Weekday int `mapstructure:"weekday"`
	Hour    int `mapstructure:"hour"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("secure_cookie", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "assistant.db")
	v.SetDefault("db.dsn", "")

	v.SetDefault("admin.user", "")
	v.SetDefault("admin.password", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.test_mode", false)
	v.SetDefault("telegram.dedupe_window", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("parser.timeout", 10*time.Second)
	v.SetDefault("parser.cache_ttl", time.Hour)

	v.SetDefault("cooling_check_interval", time.Hour)
	v.SetDefault("weekly_stats.weekday", int(time.Monday))
	v.SetDefault("weekly_stats.hour", 9)
}

// Load reads envFile (when it exists) into the process environment, then
// resolves settings from defaults, the file named by ASSISTANT_CONFIG and
// environment variables, in increasing priority.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("ASSISTANT_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" && c.DB.DSN == "" {
			return errors.New("config: DB_PATH or DB_DSN is required for sqlite")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return errors.New("config: DB_DSN is required for postgres")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DB.Driver)
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("config: TELEGRAM_BOT_TOKEN is required when TELEGRAM_ENABLED is set")
	}
	if c.WeeklyStats.Weekday < 0 || c.WeeklyStats.Weekday > 6 {
		return fmt.Errorf("config: WEEKLY_STATS_WEEKDAY must be 0-6, got %d", c.WeeklyStats.Weekday)
	}
	if c.WeeklyStats.Hour < 0 || c.WeeklyStats.Hour > 23 {
		return fmt.Errorf("config: WEEKLY_STATS_HOUR must be 0-23, got %d", c.WeeklyStats.Hour)
	}
	if c.CoolingCheckInterval <= 0 {
		return errors.New("config: COOLING_CHECK_INTERVAL must be positive")
	}
	return nil
}

// DBSource returns the driver name and data source for storage.Open.
func (c *Config) DBSource() (driver, dsn string) {
	if c.DB.DSN != "" {
		return c.DB.Driver, c.DB.DSN
	}
	return c.DB.Driver, c.DB.Path
}
