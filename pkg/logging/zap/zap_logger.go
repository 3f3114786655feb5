package zaplogging

import (
	"os"
	"strings"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapSprintfLogger adapts a zap SugaredLogger to the printf-style logging.Logger
type ZapSprintfLogger struct {
	sugar *zap.SugaredLogger
}

// ParseLevel maps a configuration level name to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.NewValidationError("unsupported log level", nil).WithContext("level", level)
	}
}

// NewZapSprintfLogger builds a console logger writing to stderr at the given level
func NewZapSprintfLogger(level string) (*ZapSprintfLogger, error) {
	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zapLevel),
	)

	return &ZapSprintfLogger{sugar: zap.New(core).Sugar()}, nil
}

// NewZapSprintfLoggerFrom wraps an existing zap logger, mostly for tests
func NewZapSprintfLoggerFrom(l *zap.Logger) *ZapSprintfLogger {
	return &ZapSprintfLogger{sugar: l.Sugar()}
}

func (z *ZapSprintfLogger) Debugf(format string, args ...interface{}) {
	z.sugar.Debugf(format, args...)
}

func (z *ZapSprintfLogger) Infof(format string, args ...interface{}) {
	z.sugar.Infof(format, args...)
}

func (z *ZapSprintfLogger) Warnf(format string, args ...interface{}) {
	z.sugar.Warnf(format, args...)
}

func (z *ZapSprintfLogger) Errorf(format string, args ...interface{}) {
	z.sugar.Errorf(format, args...)
}

// LogFuncs exposes the backend for logging.NewLogger
func (z *ZapSprintfLogger) LogFuncs() logging.LogFuncs {
	return logging.LogFuncs{
		Debugf: z.Debugf,
		Infof:  z.Infof,
		Warnf:  z.Warnf,
		Errorf: z.Errorf,
	}
}

func (z *ZapSprintfLogger) Sync() error {
	return z.sugar.Sync()
}
