// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ROULETTE"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "ROULETTE_DEBUG", validateEnvBool},

		// Analysis backend
		{"backend.url", "ROULETTE_BACKEND_URL", validateEnvURL},
		{"backend.apiprefix", "ROULETTE_BACKEND_APIPREFIX", validateEnvAPIPrefix},
		{"backend.timeout", "ROULETTE_BACKEND_TIMEOUT", validateEnvDuration},
		{"backend.historylimit", "ROULETTE_BACKEND_HISTORYLIMIT", validateEnvHistoryLimit},
		{"backend.sessionid", "ROULETTE_BACKEND_SESSIONID", nil},
		{"backend.ratelimit", "ROULETTE_BACKEND_RATELIMIT", validateEnvRateLimit},

		// Display server
		{"webserver.enabled", "ROULETTE_WEBSERVER_ENABLED", validateEnvBool},
		{"webserver.listen", "ROULETTE_WEBSERVER_LISTEN", validateEnvListen},

		// Preferences
		{"preferences.backend", "ROULETTE_PREFERENCES_BACKEND", validateEnvPrefsBackend},
		{"preferences.sqlite.path", "ROULETTE_PREFERENCES_SQLITE_PATH", nil},
		{"preferences.redis.addr", "ROULETTE_PREFERENCES_REDIS_ADDR", validateEnvListen},
		{"preferences.redis.password", "ROULETTE_PREFERENCES_REDIS_PASSWORD", nil},

		// MQTT
		{"mqtt.enabled", "ROULETTE_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "ROULETTE_MQTT_BROKER", validateEnvURL},
		{"mqtt.username", "ROULETTE_MQTT_USERNAME", nil},
		{"mqtt.password", "ROULETTE_MQTT_PASSWORD", nil},

		// Logging and metrics
		{"logging.level", "ROULETTE_LOGGING_LEVEL", validateEnvLogLevel},
		{"metrics.enabled", "ROULETTE_METRICS_ENABLED", validateEnvBool},
		{"metrics.listen", "ROULETTE_METRICS_LISTEN", validateEnvListen},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value: %s", value)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL: %s", value)
	}
	return nil
}

func validateEnvAPIPrefix(value string) error {
	if !strings.HasPrefix(value, "/") {
		return fmt.Errorf("API prefix must start with '/': %s", value)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration: %s", value)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive: %s", value)
	}
	return nil
}

func validateEnvHistoryLimit(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer value: %s", value)
	}
	if n < MinHistoryLimit || n > MaxHistoryLimit {
		return fmt.Errorf("history limit must be between %d and %d, got %d", MinHistoryLimit, MaxHistoryLimit, n)
	}
	return nil
}

func validateEnvRateLimit(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid number: %s", value)
	}
	if f < 0 {
		return fmt.Errorf("rate limit cannot be negative: %s", value)
	}
	return nil
}

func validateEnvListen(value string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid host:port: %s", value)
	}
	return nil
}

func validateEnvPrefsBackend(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sqlite", "redis", "memory":
		return nil
	default:
		return fmt.Errorf("unknown preference backend: %s (valid: sqlite, redis, memory)", value)
	}
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level: %s", value)
	}
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
