package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminChatID      int64  `mapstructure:"ADMIN_CHAT_ID"`
	AdminPhone       string `mapstructure:"ADMIN_PHONE"`

	Storage  string `mapstructure:"STORAGE"`
	DB_URL   string `mapstructure:"DB_URL"`
	RedisURL string `mapstructure:"REDIS_URL"`

	MinDeposit           float64       `mapstructure:"MIN_DEPOSIT"`
	DefaultMinWithdrawal float64       `mapstructure:"DEFAULT_MIN_WITHDRAWAL"`
	DefaultWithdrawPin   string        `mapstructure:"DEFAULT_WITHDRAW_PIN"`
	TaskCooldown         time.Duration `mapstructure:"TASK_COOLDOWN"`
	ExpirySweepInterval  time.Duration `mapstructure:"EXPIRY_SWEEP_INTERVAL"`

	MetricsAddr  string  `mapstructure:"METRICS_ADDR"`
	LogLevel     string  `mapstructure:"LOG_LEVEL"`
	BotRateLimit float64 `mapstructure:"BOT_RATE_LIMIT"`
	BotRateBurst int     `mapstructure:"BOT_RATE_BURST"`
}

var defaults = map[string]any{
	"ADMIN_PHONE":            "01711111111",
	"STORAGE":                StoragePostgres,
	"MIN_DEPOSIT":            500,
	"DEFAULT_MIN_WITHDRAWAL": 500,
	"DEFAULT_WITHDRAW_PIN":   "1234",
	"TASK_COOLDOWN":          "24h",
	"EXPIRY_SWEEP_INTERVAL":  "1h",
	"METRICS_ADDR":           ":2112",
	"LOG_LEVEL":              "debug",
	"BOT_RATE_LIMIT":         1,
	"BOT_RATE_BURST":         3,
}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("resolve config path: %w", err)
	}

	v.AddConfigPath(filepath.Dir(absPath))
	v.SetConfigName(filepath.Base(absPath))
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "ADMIN_CHAT_ID", "DB_URL", "REDIS_URL"} {
		if err := v.BindEnv(key); err != nil {
			return config, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	switch c.Storage {
	case StoragePostgres:
		if c.DB_URL == "" {
			return errors.New("DB_URL is required for postgres storage")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.MinDeposit <= 0 {
		return errors.New("MIN_DEPOSIT must be positive")
	}
	if c.DefaultMinWithdrawal < 0 {
		return errors.New("DEFAULT_MIN_WITHDRAWAL must not be negative")
	}
	if c.TaskCooldown <= 0 {
		return errors.New("TASK_COOLDOWN must be positive")
	}
	if c.ExpirySweepInterval <= 0 {
		return errors.New("EXPIRY_SWEEP_INTERVAL must be positive")
	}
	if c.BotRateLimit <= 0 || c.BotRateBurst <= 0 {
		return errors.New("BOT_RATE_LIMIT and BOT_RATE_BURST must be positive")
	}

	return nil
}
