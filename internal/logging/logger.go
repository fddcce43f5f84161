package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. The prod environment emits JSON lines;
// anything else gets a human-readable console writer. Unknown levels fall back
// to info and are reported once through the returned logger.
func New(w io.Writer, env string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	invalidLevel := err != nil
	if invalidLevel || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = w
	if env != "prod" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if invalidLevel {
		logger.Warn().Str("value", level).Msg("invalid log level, using default: info")
	}
	return logger
}
