// config.go: settings struct of the roulette client and the functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// ConfigFileName is the file looked up in every config path.
const ConfigFileName = "config.yaml"

// BackendSettings configures the analysis service client.
type BackendSettings struct {
	URL              string        // base URL of the analysis service
	APIPrefix        string        // path prefix of the versioned API, empty for root routes
	Timeout          time.Duration // per request timeout
	HistoryLimit     int           // history window requested from the backend, 10-200
	SessionID        string        // backend session, generated and persisted when empty
	SnapshotCacheTTL time.Duration // how long a fetched snapshot is reused
	UserAgent        string        // User-Agent header sent to the backend
	RateLimit        float64       // max requests per second, 0 disables limiting
}

// SessionSettings configures the local session state.
type SessionSettings struct {
	WindowSize int // number of history entries kept for display
}

// WebServerSettings configures the local display server.
type WebServerSettings struct {
	Enabled        bool     // true to start the display server with the console
	Listen         string   // host:port of the display server
	AllowedOrigins []string // CORS origins allowed to call the API
}

// PreferencesSettings selects the preference store.
type PreferencesSettings struct {
	Backend string // sqlite, redis or memory
	SQLite  struct {
		Path string // path of the sqlite database file
	}
	Redis struct {
		Addr     string // host:port of the redis server
		Password string // redis password
		DB       int    // redis database number
		Prefix   string // key prefix
	}
}

// MQTTSettings configures publishing of session events.
type MQTTSettings struct {
	Enabled  bool   // true to publish session events
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string // topic prefix, events go to <topic>/<kind>
	Username string // broker username
	Password string // broker password
	Retain   bool   // retain flag on published messages
	QoS      int    // quality of service, 0-2
}

// LogSettings configures the central logger.
type LogSettings struct {
	Level    string // trace, debug, info, warn or error
	File     string // optional JSON log file
	Timezone string // Local, UTC or an IANA name
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose metrics
	Listen  string // host:port of the standalone metrics endpoint
}

// Settings contains all configuration options for the roulette client.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string // name of this client, sent as the event source
	}

	Backend     BackendSettings
	Session     SessionSettings
	WebServer   WebServerSettings
	Preferences PreferencesSettings
	MQTT        MQTTSettings
	Logging     LogSettings
	Metrics     MetricsSettings

	// ConfigFile is the file the settings were read from, runtime value.
	ConfigFile string `yaml:"-" mapstructure:"-"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings.
// configFile overrides the default config paths when set. When no config file
// exists in the default paths a default one is written to the first of them.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(configFile); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "init-viper").
			Build()
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryFileParsing).
			Context("operation", "unmarshal").
			Build()
	}
	settings.ConfigFile = viper.ConfigFileUsed()

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults and environment bindings and reads the configuration file.
func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		// invalid overrides are reported, the file value or default still applies
		GetLogger().Warn("Environment configuration issues", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, ConfigFileName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	data, err := getDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("Created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, ConfigFileName)
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// GetSettings returns the settings of the last successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings writes settings back to the file they were loaded from,
// or to the first default path when they were not loaded from a file.
func SaveSettings(settings *Settings) error {
	configPath := settings.ConfigFile
	if configPath == "" {
		paths, err := GetDefaultConfigPaths()
		if err != nil {
			return err
		}
		configPath = filepath.Join(paths[0], ConfigFileName)
		if err := os.MkdirAll(paths[0], 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := SaveYAMLConfig(configPath, settings); err != nil {
		return err
	}

	GetLogger().Info("Settings saved", logger.String("path", configPath))
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).
			Component("configuration").
			Category(errors.CategoryFileParsing).
			Context("operation", "marshal-yaml").
			Build()
	}

	// write to a temporary file in the same directory, then rename over the original
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		// cross-device rename, fall back to copy and delete
		if err := moveFile(tempFileName, configPath); err != nil {
			return errors.New(err).
				Component("configuration").
				Category(errors.CategoryFileIO).
				Context("operation", "save-config").
				Context("path", configPath).
				Build()
		}
	}

	return nil
}
