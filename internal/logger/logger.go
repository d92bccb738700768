package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskiq/taskiq-auth/internal/config"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// consoleEncoder is the human readable layout, colored unless disabled
func consoleEncoder(cfg *config.LoggingConfig) zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime + ".000")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Color {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	return enc
}

func jsonEncoder() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	return enc
}

// InitLogger replaces the global logger with one built from cfg
func InitLogger(cfg *config.LoggingConfig) error {
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// NewLogger builds a zap logger from cfg without touching the global one
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapCfg := zap.Config{Level: zap.NewAtomicLevelAt(level)}
	switch cfg.Format {
	case "json":
		zapCfg.Encoding = "json"
		zapCfg.EncoderConfig = jsonEncoder()
	case "console", "":
		zapCfg.Encoding = "console"
		zapCfg.Development = true
		zapCfg.EncoderConfig = consoleEncoder(cfg)
	default:
		return nil, fmt.Errorf("unsupported log format: %q", cfg.Format)
	}

	zapCfg.OutputPaths, zapCfg.ErrorOutputPaths, err = sinks(cfg)
	if err != nil {
		return nil, err
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	l, err := zapCfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// sinks lists where regular and internal error output go. The log file, when
// set, receives both; stdout/stderr are used unless disabled or nothing else
// is configured.
func sinks(cfg *config.LoggingConfig) (out, errOut []string, err error) {
	if cfg.OutputPath != "" {
		if dir := filepath.Dir(cfg.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		if !cfg.AppendToFile {
			_ = os.Remove(cfg.OutputPath)
		}
		out = []string{cfg.OutputPath}
		errOut = []string{cfg.OutputPath}
	}

	if !cfg.DisableConsole || len(out) == 0 {
		out = append([]string{"stdout"}, out...)
		errOut = append([]string{"stderr"}, errOut...)
	}
	return out, errOut, nil
}

// SetLogger replaces the global logger, mostly useful in tests
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	globalLogger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	return globalLogger
}

// FxLogger routes fx lifecycle events to the global logger
func FxLogger() fxevent.Logger {
	return &fxevent.ZapLogger{Logger: globalLogger.WithOptions(zap.AddCallerSkip(-1))}
}

func Debug(msg string, fields ...zap.Field) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	globalLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	globalLogger.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	globalLogger.Fatal(msg, fields...)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return globalLogger.With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return globalLogger.Sync()
}
