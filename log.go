package matchboard

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger at the given level, suitable for passing
// to SetLogger on the engine or its components. Hosts with their own zap
// setup can skip this and pass any SugaredLogger.
func NewLogger(level zapcore.Level, dev bool) *zap.SugaredLogger {
	var encoderCfg zapcore.EncoderConfig
	if dev {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core).Sugar()
}

// ParseLogLevel maps a level name to its zapcore level, defaulting to info.
func ParseLogLevel(name string) zapcore.Level {
	switch name {
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
