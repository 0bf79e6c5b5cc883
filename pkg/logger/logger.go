// backend-go/pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = newLogger(consoleWriter(os.Stdout), zerolog.InfoLevel)
	log.Logger = Log
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetLevel sets the log level. Gin modes ("debug", "release", "test") are
// accepted so the server mode can be passed straight through.
func SetLevel(levelStr string) {
	level, err := parseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

// Configure rebuilds the global logger. format is "console" or "json".
func Configure(levelStr, format string) {
	configureTo(os.Stdout, levelStr, format)
}

func configureTo(out io.Writer, levelStr, format string) {
	var w io.Writer = out
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		w = consoleWriter(out)
	}
	Log = newLogger(w, zerolog.InfoLevel)
	log.Logger = Log
	SetLevel(levelStr)
}

// For returns a child logger tagged with a component name.
func For(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}

func parseLevel(levelStr string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "release":
		return zerolog.InfoLevel, nil
	case "test":
		return zerolog.WarnLevel, nil
	case "":
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(levelStr)
}
