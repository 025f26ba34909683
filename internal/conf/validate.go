// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rouletteai/roulette-client/internal/errors"
)

// History limits accepted by the analysis backend.
const (
	MinHistoryLimit = 10
	MaxHistoryLimit = 200
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. Every problem is
// collected so the user sees them all at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateBackendSettings,
		validateWebServerSettings,
		validatePreferencesSettings,
		validateMQTTSettings,
		validateLogSettings,
		validateMetricsSettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component("configuration").
			Category(errors.CategoryValidation).
			Context("error_count", len(ve.Errors)).
			Build()
	}

	return nil
}

func validateBackendSettings(settings *Settings) error {
	b := &settings.Backend

	u, err := url.Parse(strings.TrimSpace(b.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an absolute http(s) URL, got %q", b.URL)
	}
	if b.APIPrefix != "" && !strings.HasPrefix(b.APIPrefix, "/") {
		return fmt.Errorf("backend.apiprefix must start with '/', got %q", b.APIPrefix)
	}
	if b.HistoryLimit < MinHistoryLimit || b.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("backend.historylimit must be between %d and %d, got %d", MinHistoryLimit, MaxHistoryLimit, b.HistoryLimit)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", b.Timeout)
	}
	if b.SnapshotCacheTTL < 0 {
		return fmt.Errorf("backend.snapshotcachettl cannot be negative, got %s", b.SnapshotCacheTTL)
	}
	if b.RateLimit < 0 {
		return fmt.Errorf("backend.ratelimit cannot be negative, got %v", b.RateLimit)
	}
	if settings.Session.WindowSize < 0 {
		return fmt.Errorf("session.windowsize cannot be negative, got %d", settings.Session.WindowSize)
	}
	return nil
}

func validateWebServerSettings(settings *Settings) error {
	if !settings.WebServer.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.WebServer.Listen); err != nil {
		return fmt.Errorf("webserver.listen must be host:port, got %q", settings.WebServer.Listen)
	}
	return nil
}

func validatePreferencesSettings(settings *Settings) error {
	p := &settings.Preferences
	p.Backend = strings.ToLower(strings.TrimSpace(p.Backend))

	switch p.Backend {
	case "", "sqlite":
		if strings.TrimSpace(p.SQLite.Path) == "" {
			return fmt.Errorf("preferences.sqlite.path is required for the sqlite backend")
		}
	case "redis":
		if _, _, err := net.SplitHostPort(p.Redis.Addr); err != nil {
			return fmt.Errorf("preferences.redis.addr must be host:port, got %q", p.Redis.Addr)
		}
		if p.Redis.DB < 0 {
			return fmt.Errorf("preferences.redis.db cannot be negative, got %d", p.Redis.DB)
		}
	case "memory":
	default:
		return fmt.Errorf("preferences.backend must be sqlite, redis or memory, got %q", p.Backend)
	}
	return nil
}

func validateMQTTSettings(settings *Settings) error {
	m := &settings.MQTT
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if u, err := url.Parse(m.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("mqtt.broker must be a URL such as tcp://host:1883, got %q", m.Broker)
	}
	if m.QoS < 0 || m.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", m.QoS)
	}
	return nil
}

func validateLogSettings(settings *Settings) error {
	switch strings.ToLower(settings.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", settings.Logging.Level)
	}
}

func validateMetricsSettings(settings *Settings) error {
	if !settings.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Metrics.Listen); err != nil {
		return fmt.Errorf("metrics.listen must be host:port, got %q", settings.Metrics.Listen)
	}
	return nil
}
