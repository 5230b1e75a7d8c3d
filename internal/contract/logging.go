package contract

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// legacyLevels maps level names of older INI configs onto zap levels.
var legacyLevels = map[string]string{
	"warning":  "warn",
	"critical": "error",
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Level))
	if mapped, ok := legacyLevels[name]; ok {
		name = mapped
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}
