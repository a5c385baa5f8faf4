package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	globalMu     sync.RWMutex
	globalLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	globalLevel  = LevelInfo
)

// SetupLogger configures the process-wide logger. Output goes to stderr
// through a zerolog console writer so that stdout stays reserved for the
// performance report.
func SetupLogger(loglevel string) {
	SetupLoggerWithWriter(loglevel, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

// SetupLoggerWithWriter is SetupLogger with an explicit destination.
func SetupLoggerWithWriter(loglevel string, w io.Writer) {
	level := ToLogLevel(loglevel)
	zerolog.ErrorStackMarshaler = marshalStack

	globalMu.Lock()
	defer globalMu.Unlock()
	globalLevel = level
	globalLogger = zerolog.New(w).
		Level(toZerologLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ToLogLevel parses a level name. An unknown name is a programming error.
func ToLogLevel(level string) Level {
	switch level {
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return &zerologLogger{zl: globalLogger}
}

// GetLoggerWithName returns the process-wide logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// NewLogger wraps an existing zerolog logger.
func NewLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	if err, rest, ok := leadingError(fields); ok {
		ctx = ctx.Err(err)
		fields = rest
	}
	return &zerologLogger{zl: ctx.Fields(fields).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.zl.GetLevel() <= toZerologLevel(level)
}

// emit writes one event. A leading error value is attached with its stack
// trace; the remaining fields are key/value pairs.
func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if err, rest, ok := leadingError(fields); ok {
		e = e.Stack().Err(err)
		fields = rest
	}
	e.Fields(fields).Msg(msg)
}

func leadingError(fields []any) (error, []any, bool) {
	if len(fields) == 0 {
		return nil, fields, false
	}
	err, ok := fields[0].(error)
	if !ok {
		return nil, fields, false
	}
	return err, fields[1:], true
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
