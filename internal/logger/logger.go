package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mbs-manager/internal/config"
)

// New builds the application logger. Development mode switches to the
// console encoder at debug level regardless of the configured values.
func New(cfg *config.Config) *zap.Logger {
	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = cfg.Logger.Encoding
		if lvl, err := zapcore.ParseLevel(cfg.Logger.Level); err == nil {
			zc.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	zc.DisableCaller = cfg.Logger.DisableCaller
	zc.DisableStacktrace = cfg.Logger.DisableStacktrace
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
