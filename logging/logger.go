// Package logging provides pre-configured logrus loggers for lookout
// components. Loggers write to a per-component file under the state
// directory and, when appropriate, to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/pkg/paths"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific
// component. It uses a singleton pattern per component to avoid
// re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("LOOKOUT_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	var writers []io.Writer

	// File sink: logs/<component>-<date>.log in the state directory.
	dateStr := time.Now().Format("2006-01-02")
	logPath := filepath.Join(paths.LogDir(), fmt.Sprintf("%s-%s.log", component, dateStr))
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err == nil {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			writers = append(writers, file)
		}
	}

	// Stderr sink: suppressed on interactive terminals in normal use so the
	// dashboard is not interleaved with structured logs.
	isDebug := os.Getenv("LOOKOUT_DEBUG") == "1" || level == logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if isDebug || !isInteractive {
		writers = append(writers, os.Stderr)
	}

	if len(writers) == 0 {
		logger.SetOutput(io.Discard)
	} else {
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}
