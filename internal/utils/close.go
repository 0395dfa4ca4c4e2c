package utils

import (
	"io"

	"github.com/MrSnakeDoc/skymock/internal/logger"
)

// CloseLogged closes c and logs any error under what.
// Use for shutdown paths where the error cannot change the outcome.
func CloseLogged(c io.Closer, what string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", what), logger.Error(err))
	}
}
