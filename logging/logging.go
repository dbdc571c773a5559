/*
Package logging builds the zap loggers used by detlite programs.
*/
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger flavour and level
type Config struct {
	// Level is a zap level name such as debug, info or warn
	Level string `yaml:"level"`
	// Development logs human readable console output instead of JSON
	Development bool `yaml:"development"`
}

// New builds a logger.  Production loggers write JSON, both write ISO8601
// times under the timestamp key
func New(c Config) (*zap.Logger, error) {

	cfg := zap.NewProductionConfig()

	if c.Development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)

		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}

		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build()

	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	return l, nil
}

// Install builds a logger and makes it the zap global returned by zap.L
func Install(c Config) (*zap.Logger, error) {

	l, err := New(c)

	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(l)

	return l, nil
}
