// Package logger provides leveled, allocation-light logging to stderr for
// the captcha engine and its surrounding service. Every subsystem gets its
// own tagged logger via Component; a component's verbosity can be tuned
// independently of the process-wide level, which matters here because the
// Thumbnail Cache and Collection Registry log on every file touched while
// the Engine and HTTP layers only log on state transitions and failures.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// SetOutput redirects the underlying log output (tests may point this at a buffer).
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func SetFlags(flags int) {
	log.SetFlags(flags)
}

// InitFromEnv reads LOG_LEVEL and applies it; unrecognized or empty values fall back to info.
func InitFromEnv() {
	SetLevelFromString(os.Getenv("LOG_LEVEL"))
}

func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

func SetLevelFromString(level string) {
	SetLevel(parseLevel(level))
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func EnabledDebug() bool {
	return enabled(LevelDebug)
}

func CurrentLevelString() string {
	return Level(currentLevel.Load()).String()
}

// componentLevels holds per-component overrides of the process-wide level,
// keyed by the name passed to Component. A component with no override
// defers to currentLevel.
var componentLevels sync.Map

// Component returns a tagged logger whose messages are all prefixed with
// "[name] ", e.g. "[Registry]", "[ThumbnailCache]". If LOG_LEVEL_<NAME> is
// set in the environment (NAME uppercased, non-alphanumerics stripped —
// "ThumbnailCache" becomes LOG_LEVEL_THUMBNAILCACHE), that component logs
// at the override level regardless of the process-wide one. This lets an
// operator quiet a chatty component, or turn on debug logging for just the
// one under investigation, without touching LOG_LEVEL itself.
func Component(name string) *Tagged {
	if raw := os.Getenv("LOG_LEVEL_" + envKey(name)); raw != "" {
		componentLevels.Store(name, parseLevel(raw))
	}
	return &Tagged{name: name, tag: "[" + name + "] "}
}

func envKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, name)
}

// Tagged is a logger scoped to one component. Construct with Component.
type Tagged struct {
	name string
	tag  string
}

func (t *Tagged) level() Level {
	if v, ok := componentLevels.Load(t.name); ok {
		return v.(Level)
	}
	return Level(currentLevel.Load())
}

func (t *Tagged) Debugf(format string, args ...any) {
	if t.level() <= LevelDebug {
		outputf("DEBUG", t.tag+format, args...)
	}
}

func (t *Tagged) Infof(format string, args ...any) {
	if t.level() <= LevelInfo {
		outputf("INFO", t.tag+format, args...)
	}
}

func (t *Tagged) Warnf(format string, args ...any) {
	if t.level() <= LevelWarn {
		outputf("WARN", t.tag+format, args...)
	}
}

func (t *Tagged) Errorf(format string, args ...any) {
	if t.level() <= LevelError {
		outputf("ERROR", t.tag+format, args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		outputf("DEBUG", format, args...)
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		outputf("INFO", format, args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		outputf("WARN", format, args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		outputf("ERROR", format, args...)
	}
}

func Fatalf(format string, args ...any) {
	outputf("FATAL", format, args...)
	os.Exit(1)
}

func enabled(level Level) bool {
	return level >= Level(currentLevel.Load())
}

func outputf(level string, format string, args ...any) {
	message := fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...))
	_ = log.Output(3, message)
}
