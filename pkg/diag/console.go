package diag

import (
	"io"
	"os"
	"time"

	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// ConsoleConfig configures a console logger factory.
type ConsoleConfig struct {
	// Level is the most verbose level written.
	Level logging.LogLevel

	// Out is the destination. Nil selects os.Stdout.
	Out io.Writer

	// NoColor disables ANSI colors.
	NoColor bool

	// Timestamp prefixes each line with the local time.
	Timestamp bool
}

// ConsoleFactory is a pion LoggerFactory writing colored, level-tagged lines
// through a zerolog ConsoleWriter.
type ConsoleFactory struct {
	level logging.LogLevel
	root  zerolog.Logger
}

// NewConsoleFactory creates a console logger factory.
func NewConsoleFactory(config ConsoleConfig) *ConsoleFactory {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    config.NoColor,
		TimeFormat: time.TimeOnly,
	}
	if !config.Timestamp {
		writer.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(writer).Level(zerolog.TraceLevel).With()
	if config.Timestamp {
		ctx = ctx.Timestamp()
	}
	return &ConsoleFactory{level: config.Level, root: ctx.Logger()}
}

// NewLogger returns a logger tagged with scope.
func (f *ConsoleFactory) NewLogger(scope string) logging.LeveledLogger {
	return &consoleLogger{
		level: f.level,
		log:   f.root.With().Str("scope", scope).Logger(),
	}
}

type consoleLogger struct {
	level logging.LogLevel
	log   zerolog.Logger
}

func (l *consoleLogger) enabled(level logging.LogLevel) bool {
	return l.level >= level
}

func (l *consoleLogger) Trace(msg string) {
	if l.enabled(logging.LogLevelTrace) {
		l.log.Trace().Msg(msg)
	}
}

func (l *consoleLogger) Tracef(format string, args ...any) {
	if l.enabled(logging.LogLevelTrace) {
		l.log.Trace().Msgf(format, args...)
	}
}

func (l *consoleLogger) Debug(msg string) {
	if l.enabled(logging.LogLevelDebug) {
		l.log.Debug().Msg(msg)
	}
}

func (l *consoleLogger) Debugf(format string, args ...any) {
	if l.enabled(logging.LogLevelDebug) {
		l.log.Debug().Msgf(format, args...)
	}
}

func (l *consoleLogger) Info(msg string) {
	if l.enabled(logging.LogLevelInfo) {
		l.log.Info().Msg(msg)
	}
}

func (l *consoleLogger) Infof(format string, args ...any) {
	if l.enabled(logging.LogLevelInfo) {
		l.log.Info().Msgf(format, args...)
	}
}

func (l *consoleLogger) Warn(msg string) {
	if l.enabled(logging.LogLevelWarn) {
		l.log.Warn().Msg(msg)
	}
}

func (l *consoleLogger) Warnf(format string, args ...any) {
	if l.enabled(logging.LogLevelWarn) {
		l.log.Warn().Msgf(format, args...)
	}
}

func (l *consoleLogger) Error(msg string) {
	if l.enabled(logging.LogLevelError) {
		l.log.Error().Msg(msg)
	}
}

func (l *consoleLogger) Errorf(format string, args ...any) {
	if l.enabled(logging.LogLevelError) {
		l.log.Error().Msgf(format, args...)
	}
}
