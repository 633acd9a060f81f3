// Package log provides the structured logger used across the confidential
// asset client. It wraps a single global zerolog.Logger behind a mutex so
// every package logs through the same sink and level.
package log

import (
	"cmp"
	"fmt"
	"os"
	"path"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"

	RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"
)

var (
	logger zerolog.Logger
	mu     sync.RWMutex
)

func init() {
	// $CACLIENT_LOG_LEVEL lets tests and operators override the level
	// without threading it through every constructor.
	Init(cmp.Or(os.Getenv("CACLIENT_LOG_LEVEL"), LevelInfo), "stderr")
}

// Init (re)configures the global logger. output is "stdout", "stderr", or a
// file path.
func Init(level, output string) {
	var out *os.File
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: RFC3339Milli}

	l := zerolog.New(writer).With().Timestamp().Caller().Logger()
	zerolog.CallerSkipFrameCount = 3
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return fmt.Sprintf("%s/%s:%d", path.Base(path.Dir(file)), path.Base(file), line)
	}

	switch level {
	case LevelDebug:
		l = l.Level(zerolog.DebugLevel)
	case LevelInfo:
		l = l.Level(zerolog.InfoLevel)
	case LevelWarn:
		l = l.Level(zerolog.WarnLevel)
	case LevelError:
		l = l.Level(zerolog.ErrorLevel)
	case LevelFatal:
		l = l.Level(zerolog.FatalLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", level))
	}
	set(l)
}

func get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func set(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Logger returns the current global logger, for callers that need to attach
// extra fields (e.g. log.Logger().With().Str("account", acc).Logger()).
func Logger() *zerolog.Logger {
	l := get()
	return &l
}

func Debugf(template string, args ...any) { get().Debug().Msgf(template, args...) }
func Infof(template string, args ...any)  { get().Info().Msgf(template, args...) }
func Warnf(template string, args ...any)  { get().Warn().Msgf(template, args...) }
func Errorf(template string, args ...any) { get().Error().Msgf(template, args...) }

// Errorw logs err alongside a message, the idiom used for failures that
// carry a wrapped error chain.
func Errorw(err error, msg string) {
	get().Error().Err(err).Msg(msg)
}

func Fatalf(template string, args ...any) {
	get().Fatal().Msgf(template+"\n"+string(debug.Stack()), args...)
}
