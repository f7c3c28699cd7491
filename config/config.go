package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	TelegramBotToken    string
	TelegramBotUsername string

	// Payment configuration
	PaymentSecretKey     string // webhook signature key
	PaymentProviderToken string // Telegram invoice provider token

	// Database configuration
	DatabaseURL string

	// Web configuration
	ListenAddr       string
	SessionSecretKey string

	// Marketplace configuration
	StartingBalance    int64         // XTR granted to new accounts
	CloserInterval     time.Duration // how often expired auctions are closed
	DutchDecayInterval time.Duration // how often Dutch prices are recomputed
	BidHistoryLimit    int           // bids shown on an auction page

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Telegram
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramBotUsername: os.Getenv("TELEGRAM_BOT_USERNAME"),

		// Payments
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentProviderToken: os.Getenv("PAYMENT_PROVIDER_TOKEN"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Web
		ListenAddr:       ":5000",
		SessionSecretKey: os.Getenv("SESSION_SECRET_KEY"),

		// Marketplace settings with defaults
		StartingBalance:    0,
		CloserInterval:     60 * time.Second,
		DutchDecayInterval: 10 * time.Second,
		BidHistoryLimit:    10,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if interval := os.Getenv("CLOSER_INTERVAL_SECONDS"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds > 0 {
			config.CloserInterval = time.Duration(seconds) * time.Second
		}
	}
	if interval := os.Getenv("DUTCH_DECAY_INTERVAL_SECONDS"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds > 0 {
			config.DutchDecayInterval = time.Duration(seconds) * time.Second
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.TelegramBotToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.SessionSecretKey == "" {
			return nil, fmt.Errorf("SESSION_SECRET_KEY is required")
		}
	}

	return config, nil
}
