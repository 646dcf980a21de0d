package turbomidi

import (
	"elektron/turbomidi-go/pkg/internal/logger"
)

// LogLevel represents logging level
type LogLevel int

const (
	// LevelDebug shows all log messages (most verbose)
	LevelDebug LogLevel = iota
	// LevelInfo shows info, warn, and error messages (default)
	LevelInfo
	// LevelWarn shows warn and error messages
	LevelWarn
	// LevelError shows only error messages
	LevelError
)

// NewLogger creates the default zap-backed logger at the given level
func NewLogger(level LogLevel) Logger {
	return logger.NewZapLogger(logger.Level(level))
}

// NewNoOpLogger creates a logger that doesn't log
func NewNoOpLogger() Logger {
	return logger.NewNoOpLogger()
}
