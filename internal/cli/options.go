package cli

import (
	"log/slog"
	"os"

	"github.com/aretw0/cascade/internal/logging"
)

// Options are the flags shared by every command.
type Options struct {
	// Dir holds default_config, agent_config and flow.
	Dir string
	// Debug forces the debug log level.
	Debug bool
	// LogLevel is used when Debug is off. Empty means warn.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string

	// RedisAddr switches run records and output locks to Redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Logger builds the logger described by the options.
// Logs always go to stderr.
func (o Options) Logger() (*slog.Logger, error) {
	level := slog.LevelWarn
	if o.Debug {
		level = slog.LevelDebug
	} else if o.LogLevel != "" {
		l, err := logging.ParseLevel(o.LogLevel)
		if err != nil {
			return nil, err
		}
		level = l
	}

	format := logging.FormatText
	if o.LogFormat == string(logging.FormatJSON) {
		format = logging.FormatJSON
	}
	return logging.NewWithFormat(os.Stderr, format, level), nil
}
