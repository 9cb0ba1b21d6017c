package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// contextKey is the type for context keys
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// LoggerKey is the context key for logger
	LoggerKey contextKey = "logger"
)

var (
	globalLogger zerolog.Logger
	globalWriter *SmartWriter
)

// Config holds logger configuration
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Output  io.Writer
	Service string // added to every line as "service" when set

	// File, when set, adds a rotating log file next to Output
	// (or replaces it when Output is nil and Console is false)
	File    *FileConfig
	Console bool
}

// FileConfig controls lumberjack rotation
type FileConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (f FileConfig) writer() (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(f.Filename), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   f.Filename,
		MaxSize:    f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAge:     f.MaxAgeDays,
		Compress:   f.Compress,
	}
	if lj.MaxSize <= 0 {
		lj.MaxSize = 100
	}
	return lj, nil
}

// InitWithFile logs to a rotating file, and to stdout too unless
// enableConsole is false (background mode). It panics if the log directory
// cannot be created.
func InitWithFile(filename string, level string, format string, enableConsole bool) {
	if err := InitE(Config{
		Level:   level,
		Format:  format,
		Console: enableConsole,
		File: &FileConfig{
			Filename:   filename,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}); err != nil {
		panic(err)
	}
}

// Init initializes the global logger, falling back to stdout if the log file
// cannot be opened
func Init(cfg Config) {
	if err := InitE(cfg); err != nil {
		cfg.File = nil
		cfg.Console = true
		_ = InitE(cfg)
		globalLogger.Error().Err(err).Msg("log file unavailable, logging to stdout")
	}
}

// InitE is Init with the file setup error returned
func InitE(cfg Config) error {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output, err := cfg.output()
	if err != nil {
		return err
	}

	// Every line goes through one SmartWriter so Flush has a single target
	if globalWriter != nil {
		_ = globalWriter.Close()
	}
	sw := NewSmartWriter(output, time.Second)
	globalWriter = sw

	zerolog.CallerMarshalFunc = shortCaller

	var base zerolog.Logger
	if cfg.Format == "console" {
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:        sw,
			TimeFormat: "2006-01-02 15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-7s", i))
			},
			FormatCaller: func(i interface{}) string {
				return fmt.Sprintf("%-20s", i)
			},
			PartsOrder: []string{
				zerolog.TimestampFieldName,
				zerolog.LevelFieldName,
				zerolog.CallerFieldName,
				zerolog.MessageFieldName,
			},
		})
	} else {
		base = zerolog.New(sw)
	}

	ctx := base.With().Timestamp().Caller()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	globalLogger = ctx.Logger()
	return nil
}

func (cfg Config) output() (io.Writer, error) {
	writers := make([]io.Writer, 0, 2)
	if cfg.Output != nil {
		writers = append(writers, cfg.Output)
	} else if cfg.Console || cfg.File == nil {
		writers = append(writers, os.Stdout)
	}
	if cfg.File != nil {
		fw, err := cfg.File.writer()
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

// shortCaller keeps the last two path elements, e.g. usecase/round_controller.go:120
func shortCaller(pc uintptr, file string, line int) string {
	short := file
	seen := 0
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			seen++
			if seen == 2 {
				short = file[i+1:]
				break
			}
		}
	}
	return fmt.Sprintf("%s:%d", short, line)
}

// Flush forces all buffered logs to be written to the underlying writer
func Flush() {
	if globalWriter != nil {
		_ = globalWriter.Sync()
	}
}

// parseLevel converts string level to zerolog.Level, defaulting to info
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	if l, err := zerolog.ParseLevel(level); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

// WithRequestID stores the request ID and a logger carrying it
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := globalLogger.With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, LoggerKey, &logger)
}

// FromContext returns the context logger, or the global one
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if logger, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger := globalLogger.With().Str("request_id", requestID).Logger()
		return &logger
	}

	return &globalLogger
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

// Debug logs a debug message
func Debug(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Debug()
}

// Info logs an info message
func Info(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Info()
}

// Warn logs a warning message
func Warn(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Warn()
}

// Error logs an error message
func Error(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Error()
}

// Fatal logs a fatal message and exits
func Fatal(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Fatal()
}

// WithFields adds arbitrary fields to the context logger
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	with := FromContext(ctx).With()
	for k, v := range fields {
		with = with.Interface(k, v)
	}
	logger := with.Logger()
	return context.WithValue(ctx, LoggerKey, &logger)
}

// WithPlayer adds the player ID to the context logger
func WithPlayer(ctx context.Context, playerID int64) context.Context {
	logger := FromContext(ctx).With().Int64("player_id", playerID).Logger()
	return context.WithValue(ctx, LoggerKey, &logger)
}

// WithRound adds the round ID to the context logger
func WithRound(ctx context.Context, roundID string) context.Context {
	logger := FromContext(ctx).With().Str("round_id", roundID).Logger()
	return context.WithValue(ctx, LoggerKey, &logger)
}

// Detach returns a background context carrying ctx's logger and request ID,
// for work that outlives the request
func Detach(ctx context.Context) context.Context {
	detached := context.WithValue(context.Background(), LoggerKey, FromContext(ctx))
	if requestID := GetRequestID(ctx); requestID != "" {
		detached = context.WithValue(detached, RequestIDKey, requestID)
	}
	return detached
}

// Global loggers, for startup and shutdown where no request context exists

// DebugGlobal logs a debug message without context
func DebugGlobal() *zerolog.Event {
	return globalLogger.Debug()
}

// InfoGlobal logs an info message without context
func InfoGlobal() *zerolog.Event {
	return globalLogger.Info()
}

// WarnGlobal logs a warning message without context
func WarnGlobal() *zerolog.Event {
	return globalLogger.Warn()
}

// ErrorGlobal logs an error message without context
func ErrorGlobal() *zerolog.Event {
	return globalLogger.Error()
}

// FatalGlobal logs a fatal message and exits
func FatalGlobal() *zerolog.Event {
	return globalLogger.Fatal()
}
