package observability

import "github.com/rouletteai/roulette-client/internal/logger"

// Package-level cached logger instance.
var log = logger.Global().Module("metrics")
