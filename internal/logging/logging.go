// Package logging builds the shell's zap logger. Grounded on
// cmd/zmux-server/main.go's logger construction: a colorized, caller- and
// stacktrace-free development config by default, switching to a production
// JSON encoder when GOSH_LOG_MODE=prod — the shell runs attached to a
// terminal, not a log aggregator, so development formatting is the sane
// default rather than an afterthought.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the root logger per mode ("dev", the default, or "prod").
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch mode {
	case "prod":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = ""
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
		cfg.DisableCaller = true
	}
	return cfg.Build()
}
