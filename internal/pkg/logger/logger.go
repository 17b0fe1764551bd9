package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the global structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string
	Output      io.Writer
}

// Init replaces the global zerolog logger. Product events are logged through
// it with an "event" field so they can be filtered downstream.
func Init(opts Options) zerolog.Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := zerolog.New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(opts.Level)

	log.Logger = l
	return l
}

func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

// Event starts an info entry tagged with the given product event name.
func Event(name string) *zerolog.Event {
	return log.Info().Str("event", name)
}

// WarnEvent starts a warn entry tagged with the given product event name.
func WarnEvent(name string) *zerolog.Event {
	return log.Warn().Str("event", name)
}

// ErrorEvent starts an error entry tagged with the given product event name.
func ErrorEvent(name string, err error) *zerolog.Event {
	return log.Error().Str("event", name).Err(err)
}
