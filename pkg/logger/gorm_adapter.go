package logger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm output through the context logger, so wallet queries
// carry the request ID, player and round of the bet that caused them.
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
	// Component tags every line; defaults to "gorm"
	Component string
	// IgnoreRecordNotFound keeps lookups of unopened wallet accounts out of the error log
	IgnoreRecordNotFound bool
}

// NewGormLogger logs warnings and slow queries only
func NewGormLogger() *GormLogger {
	return &GormLogger{
		SlowThreshold:        200 * time.Millisecond,
		LogLevel:             gormlogger.Warn,
		Component:            "gorm",
		IgnoreRecordNotFound: true,
	}
}

// LogMode returns a copy at the given level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if e := l.event(ctx, gormlogger.Info); e != nil {
		e.Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if e := l.event(ctx, gormlogger.Warn); e != nil {
		e.Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if e := l.event(ctx, gormlogger.Error); e != nil {
		e.Msgf(msg, data...)
	}
}

// event returns nil when level is filtered out
func (l *GormLogger) event(ctx context.Context, level gormlogger.LogLevel) *zerolog.Event {
	if l.LogLevel < level || l.LogLevel <= gormlogger.Silent {
		return nil
	}
	var e *zerolog.Event
	switch level {
	case gormlogger.Error:
		e = Error(ctx)
	case gormlogger.Warn:
		e = Warn(ctx)
	default:
		e = Info(ctx)
	}
	component := l.Component
	if component == "" {
		component = "gorm"
	}
	return e.Str("component", component)
}

// Trace logs failed and slow statements, and every statement at Info
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	var e *zerolog.Event
	switch {
	case err != nil && !(l.IgnoreRecordNotFound && errors.Is(err, gorm.ErrRecordNotFound)):
		if e = l.event(ctx, gormlogger.Error); e != nil {
			e = e.Err(err)
		}
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold:
		if e = l.event(ctx, gormlogger.Warn); e != nil {
			e = e.Bool("slow_query", true).Dur("threshold", l.SlowThreshold)
		}
	default:
		e = l.event(ctx, gormlogger.Info)
	}
	if e == nil {
		return
	}

	sql, rows := fc()
	e.Str("sql", sql).
		Float64("elapsed_ms", float64(elapsed.Nanoseconds())/1e6).
		Int64("rows", rows).
		Msg("GORM query")
}
