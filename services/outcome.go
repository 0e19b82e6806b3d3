package services

import (
	"github.com/rs/zerolog"
)

// OrDefault returns value when err is nil and fallback otherwise, logging the
// failure. Call sites whose output only feeds UI chrome use it to degrade.
func OrDefault[T any](value T, err error, fallback T, logger zerolog.Logger, what string) T {
	if err == nil {
		return value
	}
	logger.Warn().Err(err).Str("operation", what).Msg("falling back to default")
	return fallback
}
