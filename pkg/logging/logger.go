// Package logging provides the zap logger construction and log sanitization
// helpers for ezirisk-engine.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the service logger for the given environment. Local and
// development environments get a human-readable console encoder at debug
// level; everything else gets the production JSON encoder.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	switch env {
	case "local", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
