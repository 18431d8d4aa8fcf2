package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "ChainPair"
	defaultAppEnv        = "development"
	defaultPort          = "8090"
	defaultLogLevel      = "info"
	defaultProduct       = "WALLET"
	defaultShutdownDelay = 10 * time.Second
	defaultLogoutGap     = 5 * time.Minute

	logoutGapSecondsEnvVar = "PING_LOGOUT_GAP_SECONDS"
	logoutGapDurEnvVar     = "PING_LOGOUT_GAP"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures agent runtime configuration loaded from environment
// variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string
	// RelayURL is the WebSocket endpoint of the pub/sub relay.
	RelayURL string
	// WalletAPIURL is the wallet data API used for envelope delivery and
	// transaction reconciliation.
	WalletAPIURL string
	// RedisURL backs the channel identity cache. Optional: without it the
	// identity lives in memory and pairings do not survive restarts.
	RedisURL string
	// DatabaseURL backs the analytics audit trail. Optional.
	DatabaseURL string
	// Product is the requesting surface (WALLET or EXCHANGE).
	Product string
	// ControlTokenHash is a bcrypt hash guarding the control API. Optional.
	ControlTokenHash string
	LogoutGap        time.Duration
	ShutdownPeriod   time.Duration
}

// Load reads configuration values from the environment and populates a
// Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		RelayURL:         os.Getenv("RELAY_URL"),
		WalletAPIURL:     strings.TrimRight(os.Getenv("WALLET_API_URL"), "/"),
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Product:          strings.ToUpper(getEnv("PRODUCT", defaultProduct)),
		ControlTokenHash: os.Getenv("CONTROL_TOKEN_HASH"),
		LogoutGap:        defaultLogoutGap,
		ShutdownPeriod:   defaultShutdownDelay,
	}

	if v := os.Getenv(logoutGapSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", logoutGapSecondsEnvVar, err)
		}
		cfg.LogoutGap = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(logoutGapDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", logoutGapDurEnvVar, err)
		}
		cfg.LogoutGap = d
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if cfg.RelayURL == "" {
		return Config{}, fmt.Errorf("RELAY_URL must be set")
	}
	if cfg.WalletAPIURL == "" {
		return Config{}, fmt.Errorf("WALLET_API_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
