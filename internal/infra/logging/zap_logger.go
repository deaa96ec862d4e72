package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger builds a JSON logger for production and a console logger
// otherwise. level is any zap level name; empty means info.
func NewZapLogger(env, level string) (*ZapLogger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{z: z}, nil
}

func NewZapLoggerFrom(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

func (l *ZapLogger) Info(msg string, fields map[string]any) {
	l.z.Info(msg, zapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, fields map[string]any) {
	l.z.Error(msg, zapFields(fields)...)
}

func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}

func zapFields(fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
