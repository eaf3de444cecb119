// Package logger builds the service's zap logger and carries the request id
// through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log line.
const ServiceName = "ideahub"

// Options selects the logger preset.
type Options struct {
	Env string // prod, local, dev or docker
	// Level overrides the preset level when set: debug, info, warn, error.
	Level string
	// Format overrides the preset encoding when set: json or console.
	Format string
}

// presets maps an environment to its base config. prod logs JSON at info,
// everything else logs colored console output at debug.
var presets = map[string]func() zap.Config{
	"prod":   zap.NewProductionConfig,
	"local":  developmentConfig,
	"dev":    developmentConfig,
	"docker": developmentConfig,
}

func developmentConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// New builds the service logger.
func New(opts Options) (*zap.Logger, error) {
	preset, ok := presets[opts.Env]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q for logger", opts.Env)
	}
	cfg := preset()

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	switch opts.Format {
	case "":
	case "json":
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console":
		cfg.Encoding = "console"
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	l, err := cfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", ServiceName), zap.String("env", opts.Env)),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
