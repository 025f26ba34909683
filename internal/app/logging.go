package app

import (
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/logger"
)

// SetupLogging installs the central logger described by settings as the
// process-wide logger. Debug mode forces the debug level.
func SetupLogging(settings *conf.Settings, console bool) (*logger.CentralLogger, error) {
	level := settings.Logging.Level
	if settings.Debug {
		level = string(logger.LogLevelDebug)
	}

	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		Level:    level,
		Timezone: settings.Logging.Timezone,
		Console:  console,
		File:     settings.Logging.File,
	})
	if err != nil {
		return nil, err
	}
	logger.SetGlobal(cl)
	return cl, nil
}
