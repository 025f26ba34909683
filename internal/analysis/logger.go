package analysis

import "github.com/rouletteai/roulette-client/internal/logger"

// GetLogger returns the analysis package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}
