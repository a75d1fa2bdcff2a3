// Package gormlogger adapts the zerolog global logger to gorm's logger
// interface, so SQL statements and errors land in the same streams as the
// rest of the application output.
package gormlogger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// Logger implements gorm's logger interface on top of zerolog.
type Logger struct {
	// SlowThreshold marks statements slower than this as warnings.
	SlowThreshold time.Duration
}

// New creates a gorm logger backed by the zerolog global logger.
func New() *Logger {
	return &Logger{
		SlowThreshold: defaultSlowThreshold,
	}
}

// LogMode is part of gorm's logger interface. Level selection stays with
// zerolog's global level, so the requested mode is ignored.
func (l *Logger) LogMode(gormlog.LogLevel) gormlog.Interface {
	return l
}

// Info is part of gorm's logger interface.
func (l *Logger) Info(_ context.Context, msg string, args ...interface{}) {
	log.Info().Msgf(msg, args...)
}

// Warn is part of gorm's logger interface.
func (l *Logger) Warn(_ context.Context, msg string, args ...interface{}) {
	log.Warn().Msgf(msg, args...)
}

// Error is part of gorm's logger interface.
func (l *Logger) Error(_ context.Context, msg string, args ...interface{}) {
	log.Error().Msgf(msg, args...)
}

// Trace logs one SQL statement with its duration and row count. Statements
// log at trace level, slow ones at warn, failed ones at error. A record not
// found result is part of the normal control flow here (empty mode table, no
// entry due) and stays at trace level.
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	var event *zerolog.Event

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		event = log.Error().Err(err)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold:
		event = log.Warn()
	default:
		event = log.Trace()
	}

	event.
		Str("sql", sql).
		Int64("rows", rows).
		Dur("elapsed", elapsed).
		Msg("query")
}
