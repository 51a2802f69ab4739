/*
Package logx wraps zerolog for EchoSpace.

It initializes the process-wide logger (human-readable console output in development,
JSON in every other environment) and exposes small key/value helpers so call sites can log
without building zerolog events by hand.
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the global zerolog logger.
// Development: debug level, colored console output on stderr.
// Otherwise: info level, JSON on stdout.
func InitGlobalLogger(isDevelopment bool) {
	if isDevelopment {
		initLogger(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}, zerolog.DebugLevel)
		return
	}

	initLogger(os.Stdout, zerolog.InfoLevel)
}

// InitWriterLogger points the global logger at w. The terminal client uses it to keep log
// lines out of the interactive screen, and tests use it to capture or silence output.
func InitWriterLogger(w io.Writer, level zerolog.Level) {
	initLogger(w, level)
}

func initLogger(w io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// checkFields drops a key/value list with an odd length instead of letting zerolog
// misalign keys and values.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msgf("logx %s call received an odd number of fields, fields ignored: %v", level, fields)
		return nil
	}
	return fields
}

// Debug logs msg at debug level with optional key/value fields.
func Debug(msg string, fields ...any) {
	fields = checkFields("Debug", fields)

	Logger().Debug().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Info logs msg at info level with optional key/value fields.
func Info(msg string, fields ...any) {
	fields = checkFields("Info", fields)

	Logger().Info().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn logs msg at warn level with optional key/value fields.
func Warn(msg string, fields ...any) {
	fields = checkFields("Warn", fields)

	Logger().Warn().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error logs err and msg at error level with optional key/value fields.
func Error(err error, msg string, fields ...any) {
	fields = checkFields("Error", fields)

	Logger().Error().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal logs err and msg at fatal level and exits the process.
func Fatal(err error, msg string, fields ...any) {
	fields = checkFields("Fatal", fields)

	Logger().Fatal().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}
