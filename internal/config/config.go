// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"telegram-checkin-bot/internal/period"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Blocklist BlocklistConfig `mapstructure:"blocklist"`
	Checkin   CheckinConfig   `mapstructure:"checkin"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds the chat allow-list. Empty means all chats.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// BlocklistConfig holds user ids whose messages are dropped silently.
type BlocklistConfig struct {
	Users []int64 `mapstructure:"users"`
}

// CheckinConfig holds check-in ledger behavior.
type CheckinConfig struct {
	// Marker is the emoji whose repetitions count as a check-in message.
	Marker string `mapstructure:"marker"`
	// DayStart shifts the day boundary, "HH:MM". Malformed values fall
	// back to midnight with a warning.
	DayStart string `mapstructure:"day_start"`
	// DailyMax and MonthlyMax cap increments; 0 means unlimited.
	DailyMax   int `mapstructure:"daily_max"`
	MonthlyMax int `mapstructure:"monthly_max"`
	// AutoCleanHistory enables the rollover purge of all records outside
	// the current month. Lossy; off by default.
	AutoCleanHistory bool `mapstructure:"auto_clean_history"`
	// RankingSize is the number of entries shown in group rankings.
	RankingSize int `mapstructure:"ranking_size"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// ParsedDayStart returns the configured day boundary. A malformed value
// falls back to 00:00 and logs a warning, matching the lenient behavior
// expected of chat-facing configuration.
func (c *CheckinConfig) ParsedDayStart() period.DayStart {
	ds, ok := period.ParseDayStart(c.DayStart)
	if !ok && c.DayStart != "" {
		log.Warn().Str("day_start", c.DayStart).Msg("Malformed checkin.day_start, using 00:00")
	}
	return ds
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// e.g., BOT_TOKEN, DATABASE_HOST, CHECKIN_DAILY_MAX
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configuration the services must never see, so the
// "0 means unlimited" convention stays the only quota sentinel.
func (c *Config) Validate() error {
	if c.Checkin.DailyMax < 0 {
		return fmt.Errorf("checkin.daily_max must not be negative, got %d", c.Checkin.DailyMax)
	}
	if c.Checkin.MonthlyMax < 0 {
		return fmt.Errorf("checkin.monthly_max must not be negative, got %d", c.Checkin.MonthlyMax)
	}
	if c.Checkin.RankingSize <= 0 {
		return fmt.Errorf("checkin.ranking_size must be positive, got %d", c.Checkin.RankingSize)
	}
	if c.Checkin.Marker == "" {
		return fmt.Errorf("checkin.marker must not be empty")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "checkinbot")
	v.SetDefault("database.name", "checkinbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Check-in defaults
	v.SetDefault("checkin.marker", "🦌")
	v.SetDefault("checkin.day_start", "00:00")
	v.SetDefault("checkin.daily_max", 0)
	v.SetDefault("checkin.monthly_max", 0)
	v.SetDefault("checkin.auto_clean_history", false)
	v.SetDefault("checkin.ranking_size", 10)
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}

// IsUserBlocked checks if a user ID is in the blocklist.
func (c *Config) IsUserBlocked(userID int64) bool {
	for _, id := range c.Blocklist.Users {
		if id == userID {
			return true
		}
	}
	return false
}
