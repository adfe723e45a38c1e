package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with trendscope context helpers.
type Logger struct {
	*zap.Logger
	file *os.File
}

// Config contains logger configuration
type Config struct {
	Level  string
	Format string // json or console
	File   string // optional JSON log file, appended to
	Output io.Writer
}

// New creates a new logger instance. Console output goes to stderr unless
// Output is set.
func New(config Config) (*Logger, error) {
	lvl := config.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "", "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	default:
		return nil, fmt.Errorf("log format: unsupported %q (use console|json)", config.Format)
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(out), level)}

	var file *os.File
	if config.File != "" {
		file, err = os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(ec), zapcore.AddSync(file), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Logger: l, file: file}, nil
}

// Close flushes buffered entries and releases the log file, if any.
// Loggers derived with WithRunID or WithComponent share the file.
func (l *Logger) Close() error {
	err := l.Sync()
	if l.file != nil {
		if cerr := l.file.Close(); cerr != nil {
			return cerr
		}
		l.file = nil
	}
	return err
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithRunID tags every entry with the pipeline run identifier.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("run_id", id)), file: l.file}
}

// WithComponent adds a component name to the logger context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component)), file: l.file}
}
