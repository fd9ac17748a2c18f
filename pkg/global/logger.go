package global

import (
	"go.uber.org/zap"
)

// NewLogger builds a JSON production logger, or a console logger in any
// other environment.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg != nil && cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
