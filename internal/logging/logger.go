package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ProductionEnv = "production"

// ParseLevel maps a LOG_LEVEL value to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the process logger: JSON in production, console otherwise.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == ProductionEnv {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.MessageKey = "message"
		cfg.InitialFields = map[string]interface{}{
			"service": "strategy-cockpit",
			"env":     env,
		}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	lvl := ParseLevel(level)
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = env == ProductionEnv && lvl > zapcore.DebugLevel
	// Console output goes to stderr so rendered output on stdout stays clean.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
