package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the service logger and installs it as the zerolog
// global, so packages logging through zerolog/log share the same sink.
// Format "console" is for local development; anything else emits JSON.
func InitLogger(level, format, service string, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).
		Level(parseLogLevel(level)).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()

	log.Logger = logger
	return logger
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
