// Package logging provides structured logging for the mde CLI.
// A one-shot command logs to stderr; components get named loggers so
// scan and erase output can be told apart at debug level.
//
// Basic usage:
//
//	logging.Init(logging.Config{Level: "info"})
//	logger := logging.Get("dedup")
//	logger.Info("scan started", "path", "/photos")
package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// Config configures the logging system.
type Config struct {
	// Level is the log level (debug, info, warn, error).
	Level string

	// Quiet suppresses everything below error regardless of Level.
	Quiet bool
}

// ParseLevel parses a string into a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

var (
	mu      sync.Mutex
	base    *log.Logger
	loggers = make(map[string]*log.Logger)
)

func init() {
	base = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Level:           log.WarnLevel,
	})
}

// Init configures the global log level. Unknown levels fail without
// changing the current configuration.
func Init(cfg Config) error {
	level := log.WarnLevel
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level = parsed
	}
	if cfg.Quiet {
		level = log.ErrorLevel
	}

	mu.Lock()
	defer mu.Unlock()

	base.SetLevel(level)
	for _, l := range loggers {
		l.SetLevel(level)
	}
	return nil
}

// Get returns a named component logger. Loggers are cached; repeated
// calls with the same component return the same logger.
func Get(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}

	l := base.WithPrefix(component)
	l.SetLevel(base.GetLevel())
	loggers[component] = l
	return l
}
