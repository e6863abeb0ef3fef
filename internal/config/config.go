package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Trading  Trading  `mapstructure:"trading"`
	Venue    Venue    `mapstructure:"venue"`
	Notifier Notifier `mapstructure:"notifier"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Trading holds the round-trip and campaign parameters.
type Trading struct {
	UsdtAmount        float64 `mapstructure:"usdt_amount"`         // per-round amount
	TargetUsdtAmount  float64 `mapstructure:"target_usdt_amount"`  // campaign cumulative target
	MaxRounds         int     `mapstructure:"max_rounds"`          // campaign round cap
	DryRun            bool    `mapstructure:"dry_run"`             // suppress real fills/clicks
	AutoTrading       bool    `mapstructure:"auto_trading"`        // page detection triggers a round trip
	BuyEnabled        bool    `mapstructure:"buy_enabled"`         // leg toggles; a disabled leg is Skipped
	SellEnabled       bool    `mapstructure:"sell_enabled"`
	InterLegDelayMs   int     `mapstructure:"inter_leg_delay_ms"`   // settle between buy and sell
	InterRoundDelayMs int     `mapstructure:"inter_round_delay_ms"` // campaign pacing
	ScanIntervalMs    int     `mapstructure:"scan_interval_ms"`     // page/contract scan tick
}

// Venue holds the timing knobs for driving the exchange page UI.
type Venue struct {
	SettleDelayMs      int `mapstructure:"settle_delay_ms"`      // after tab clicks and fills
	EnabledAttempts    int `mapstructure:"enabled_attempts"`     // polls waiting for the action button
	EnabledBackoffMs   int `mapstructure:"enabled_backoff_ms"`   // backoff between those polls
	HoldingsAttempts   int `mapstructure:"holdings_attempts"`    // polls waiting for the holdings node
	HoldingsBackoffMs  int `mapstructure:"holdings_backoff_ms"`
	ConfirmDelayMs     int `mapstructure:"confirm_delay_ms"`     // settle before the confirmation dialog probe
	AutoCommitDelayMs  int `mapstructure:"auto_commit_delay_ms"` // page-load grace before an auto-triggered round
}

// Notifier holds the configuration for the outbound notification channel.
type Notifier struct {
	WebhookURL     string  `mapstructure:"webhook_url"`
	BotName        string  `mapstructure:"bot_name"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the control API.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the settings/log store.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("trading.usdt_amount", 100.0)
	viper.SetDefault("trading.target_usdt_amount", 1000.0)
	viper.SetDefault("trading.max_rounds", 200)
	viper.SetDefault("trading.dry_run", true)
	viper.SetDefault("trading.buy_enabled", true)
	viper.SetDefault("trading.sell_enabled", true)
	viper.SetDefault("trading.inter_leg_delay_ms", 1200)
	viper.SetDefault("trading.inter_round_delay_ms", 800)
	viper.SetDefault("trading.scan_interval_ms", 5000)

	viper.SetDefault("venue.settle_delay_ms", 120)
	viper.SetDefault("venue.enabled_attempts", 10)
	viper.SetDefault("venue.enabled_backoff_ms", 250)
	viper.SetDefault("venue.holdings_attempts", 5)
	viper.SetDefault("venue.holdings_backoff_ms", 300)
	viper.SetDefault("venue.confirm_delay_ms", 500)
	viper.SetDefault("venue.auto_commit_delay_ms", 2000)

	viper.SetDefault("notifier.rate_limit", 5)
	viper.SetDefault("notifier.rate_limit_burst", 2)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
