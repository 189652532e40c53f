/*
Package logx wraps zerolog for the voice service.

The process logger is JSON on stdout in production and a console writer on stderr
in development. Every entry carries the service name, a Unix timestamp and the
caller. Packages that own long-lived state take a Component logger; request-scoped
code uses the leveled helpers with key-value fields.
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName is attached to every entry as the "service" field.
const ServiceName = "voicesvc"

// InitGlobalLogger replaces the global logger. Development logs at debug level
// through a console writer; anything else logs JSON at info level.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isDevelopment {
		log.Logger = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
		return
	}
	log.Logger = newLogger(os.Stdout, zerolog.InfoLevel)
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Caller().
		Logger()
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged component=name.
// The child is a snapshot: call it after InitGlobalLogger.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Debug logs msg with key-value fields at debug level.
func Debug(msg string, fields ...any) {
	emit(Logger().Debug(), "Debug", msg, fields)
}

// Info logs msg with key-value fields at info level.
func Info(msg string, fields ...any) {
	emit(Logger().Info(), "Info", msg, fields)
}

// Warn logs msg with key-value fields at warn level.
func Warn(msg string, fields ...any) {
	emit(Logger().Warn(), "Warn", msg, fields)
}

// Error logs err and msg at error level.
func Error(err error, msg string, fields ...any) {
	emit(Logger().Error().Err(err), "Error", msg, fields)
}

// Fatal logs err and msg, then exits with status 1.
func Fatal(err error, msg string, fields ...any) {
	emit(Logger().Fatal().Err(err), "Fatal", msg, fields)
}

// emit writes one entry. The caller frame skipped is the exported helper, so
// the reported caller is the code that called logx. A disabled level yields a
// nil event, on which every zerolog method is a no-op.
func emit(e *zerolog.Event, level, msg string, fields []any) {
	e.Fields(checkFields(level, fields)).
		CallerSkipFrame(2).
		Msg(msg)
}

// checkFields drops an odd-length field list, which zerolog would otherwise mis-pair.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msgf("logx.%s received an odd number of fields; fields dropped", level)
		return nil
	}
	return fields
}
