package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`       // trace, debug, info, warn, error
	Timezone string `yaml:"timezone" json:"timezone"` // "Local", "UTC" or an IANA name
	Console  bool   `yaml:"console" json:"console"`   // human-readable output on stdout
	File     string `yaml:"file" json:"file"`         // optional JSON log file path
}

// Default values for logging configuration.
const (
	DefaultLogLevel = "info"
	DefaultTimezone = "Local"
)

// applyConfigDefaults fills blank sections so an empty config still logs somewhere.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if !cfg.Console && cfg.File == "" {
		cfg.Console = true
	}
}
