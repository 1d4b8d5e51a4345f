// Package logger adapts zap as the sink behind the structured logger used
// across the service.
package logger

import (
	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger whose messages are written through zap. The returned
// flush function should be deferred from main.
func New(level string, pretty bool) (ectologger.Logger, func()) {
	zcfg := zap.NewProductionConfig()
	if pretty {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zl, err := zcfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		zl = zap.NewNop()
	}
	sugar := zl.Sugar()

	log := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		fields := make([]any, 0, len(msg.Fields)*2+2)
		for k, v := range msg.Fields {
			fields = append(fields, k, v)
		}
		if msg.Err != nil {
			fields = append(fields, "error", msg.Err)
		}

		switch msg.Level {
		case "debug":
			sugar.Debugw(msg.Message, fields...)
		case "warn":
			sugar.Warnw(msg.Message, fields...)
		case "error":
			sugar.Errorw(msg.Message, fields...)
		default:
			sugar.Infow(msg.Message, fields...)
		}
	})

	return log, func() { _ = zl.Sync() }
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
