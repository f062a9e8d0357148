// Package logger provides the shared logging facility for kubeboot.
// It wraps zap's SugaredLogger with two custom levels (SUCCESS and FAIL)
// used for operator-facing step reporting, a colored console encoder, and
// an optional JSON file sink. A global logger is initialized once via
// Init and retrieved with Get; commands should defer SyncGlobal.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level defines the log level. Custom levels (SuccessLevel, FailLevel) are
// mapped onto zap's Info and Fatal levels respectively; the console encoder
// renders them with their own tag and color.
type Level int8

const (
	// DebugLevel logs are voluminous and usually disabled outside troubleshooting.
	DebugLevel Level = iota - 1
	// InfoLevel is the default priority for operational messages.
	InfoLevel
	// SuccessLevel marks completion of a significant operation.
	SuccessLevel
	// WarnLevel flags conditions that need attention but are not errors.
	WarnLevel
	// ErrorLevel flags operation failures.
	ErrorLevel
	// FailLevel logs a critical failure and then exits the process.
	FailLevel
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case SuccessLevel:
		return "success"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FailLevel:
		return "fail"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// CapitalString returns the uppercase tag used by the console encoder.
func (l Level) CapitalString() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case SuccessLevel:
		return "SUCCESS"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FailLevel:
		return "FAIL"
	default:
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// ToZapLevel converts a Level to the zapcore.Level it is logged at.
func (l Level) ToZapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case SuccessLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FailLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options holds logger configuration.
type Options struct {
	ConsoleLevel    Level
	FileLevel       Level
	LogFilePath     string
	ConsoleOutput   bool
	FileOutput      bool
	ColorConsole    bool
	TimestampFormat string
}

// DefaultOptions logs INFO+ to a colored console and, when file output is
// enabled, DEBUG+ as JSON to kubeboot.log.
func DefaultOptions() Options {
	return Options{
		ConsoleLevel:    InfoLevel,
		FileLevel:       DebugLevel,
		LogFilePath:     "kubeboot.log",
		ConsoleOutput:   true,
		FileOutput:      false,
		ColorConsole:    true,
		TimestampFormat: time.RFC3339,
	}
}

// Logger wraps zap.SugaredLogger with the custom level methods.
type Logger struct {
	*zap.SugaredLogger
	opts Options
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops. If
// construction fails (for example an unwritable log file path) it falls
// back to a plain console logger so logging is always available.
func Init(opts Options) {
	once.Do(func() {
		l, err := NewLogger(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize logger: %v, falling back to console logging\n", err)
			cfg := zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			zl, _ := cfg.Build(zap.AddCallerSkip(1))
			l = &Logger{SugaredLogger: zl.Sugar(), opts: DefaultOptions()}
		}
		globalLogger = l
	})
}

// Get returns the global logger, initializing it with DefaultOptions if
// Init was never called.
func Get() *Logger {
	if globalLogger == nil {
		Init(DefaultOptions())
	}
	return globalLogger
}

// SyncGlobal flushes any buffered log entries of the global logger.
func SyncGlobal() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// NewLogger builds a Logger instance from opts. Most callers should use the
// global logger; instance loggers exist for tests and specialized sinks.
func NewLogger(opts Options) (*Logger, error) {
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = time.RFC3339
	}

	var cores []zapcore.Core

	if opts.ConsoleOutput {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
		encCfg.TimeKey = "time"
		encCfg.LevelKey = "" // the console encoder renders the level tag itself
		encCfg.MessageKey = "msg"

		enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= opts.ConsoleLevel.ToZapLevel()
		})
		consoleCore := zapcore.NewCore(
			newConsoleEncoder(encCfg, opts.ColorConsole),
			zapcore.Lock(os.Stdout),
			enabler,
		)
		cores = append(cores, consoleCore)
	}

	if opts.FileOutput {
		if opts.LogFilePath == "" {
			return nil, fmt.Errorf("log file path cannot be empty when file output is enabled")
		}
		file, err := os.OpenFile(opts.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.LogFilePath, err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= opts.FileLevel.ToZapLevel()
		})
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), enabler)
		cores = append(cores, fileCore)
	}

	if len(cores) == 0 {
		return &Logger{SugaredLogger: zap.NewNop().Sugar(), opts: opts}, nil
	}

	zl := zap.New(zapcore.NewTee(cores...))
	return &Logger{SugaredLogger: zl.Sugar(), opts: opts}, nil
}

// With returns a derived logger carrying additional structured fields.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), opts: l.opts}
}

func (l *Logger) logf(level Level, template string, args ...interface{}) {
	if l == nil || l.SugaredLogger == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", level.CapitalString(), fmt.Sprintf(template, args...))
		if level == FailLevel {
			os.Exit(1)
		}
		return
	}
	msg := fmt.Sprintf(template, args...)
	// The tag field is consumed by the console encoder to render custom levels.
	tag := zap.String(levelTagKey, level.CapitalString())
	switch level {
	case DebugLevel:
		l.SugaredLogger.Debugw(msg, tag)
	case WarnLevel:
		l.SugaredLogger.Warnw(msg, tag)
	case ErrorLevel:
		l.SugaredLogger.Errorw(msg, tag)
	case FailLevel:
		l.SugaredLogger.Fatalw(msg, tag)
	default:
		l.SugaredLogger.Infow(msg, tag)
	}
}

// Debugf logs a formatted message at DebugLevel.
func (l *Logger) Debugf(template string, args ...interface{}) {
	l.logf(DebugLevel, template, args...)
}

// Infof logs a formatted message at InfoLevel.
func (l *Logger) Infof(template string, args ...interface{}) {
	l.logf(InfoLevel, template, args...)
}

// Successf logs a formatted message at SuccessLevel.
func (l *Logger) Successf(template string, args ...interface{}) {
	l.logf(SuccessLevel, template, args...)
}

// Warnf logs a formatted message at WarnLevel.
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.logf(WarnLevel, template, args...)
}

// Errorf logs a formatted message at ErrorLevel.
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.logf(ErrorLevel, template, args...)
}

// Failf logs a formatted message at FailLevel and exits the process.
func (l *Logger) Failf(template string, args ...interface{}) {
	l.logf(FailLevel, template, args...)
}
