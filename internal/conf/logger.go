package conf

import "github.com/rouletteai/roulette-client/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is fetched from the global logger each time because the central logger
// is installed only after the settings are loaded.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
