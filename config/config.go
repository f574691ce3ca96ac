package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log      Logger         `mapstructure:"logger"`
	DB       Database       `mapstructure:"database"`
	API      API            `mapstructure:"api"`
	KIS      KISConfig      `mapstructure:"kis"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Report   ReportConfig   `mapstructure:"report"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type CacheConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
}

// KISConfig holds the Korea Investment & Securities open API credentials
// and client settings.
type KISConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	AppKey           string        `mapstructure:"app_key"`
	AppSecret        string        `mapstructure:"app_secret"`
	AccountNumber    string        `mapstructure:"account_number"`
	AccountCode      string        `mapstructure:"account_code"`
	ExchangeCode     string        `mapstructure:"exchange_code"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequestPerSec int           `mapstructure:"max_request_per_sec"`
}

// TradingConfig holds the parameters of the infinite-buying schedule.
// Turn indices run from 0 to TotalDivisions-1 within one accumulation cycle.
type TradingConfig struct {
	Symbol           string  `mapstructure:"symbol"`
	TotalDivisions   int     `mapstructure:"total_divisions"`
	FirstBuyAmount   int     `mapstructure:"first_buy_amount"`
	PreTurnThreshold float64 `mapstructure:"pre_turn_threshold"`
	QuarterLossStart float64 `mapstructure:"quarter_loss_start"`
	StateFile        string  `mapstructure:"state_file"`
	DryRun           bool    `mapstructure:"dry_run"`
}

type ReportConfig struct {
	// Cron spec in KST, e.g. "30 22 * * *" for the 22:30 account snapshot.
	DailyCron string `mapstructure:"daily_cron"`
}

type TelegramConfig struct {
	BotToken            string        `mapstructure:"bot_token"`
	ChatID              int64         `mapstructure:"chat_id"`
	TimeoutDuration     time.Duration `mapstructure:"timeout_duration"`
	MaxRequestPerSecond int           `mapstructure:"max_request_per_second"`
}

func Load() (*Config, error) {
	// Credentials come from .env in development, real env vars in production.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional, env vars alone are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)

	viper.SetDefault("kis.base_url", "https://openapi.koreainvestment.com:9443")
	viper.SetDefault("kis.exchange_code", "NASD")
	viper.SetDefault("kis.timeout", 10*time.Second)
	viper.SetDefault("kis.max_request_per_sec", 15)

	viper.SetDefault("trading.total_divisions", 40)
	viper.SetDefault("trading.first_buy_amount", 1)
	viper.SetDefault("trading.pre_turn_threshold", 20)
	viper.SetDefault("trading.quarter_loss_start", 39)
	viper.SetDefault("trading.state_file", "data/trading_state.json")

	viper.SetDefault("report.daily_cron", "30 22 * * *")

	viper.SetDefault("telegram.timeout_duration", 10*time.Second)
	viper.SetDefault("telegram.max_request_per_second", 20)

	viper.SetDefault("cache.default_expiration", 24*time.Hour)
	viper.SetDefault("cache.cleanup_interval", 1*time.Hour)
}
