// Package logging configures the process-wide logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// Options configures Setup.
type Options struct {
	Level string
	// Dir receives <timestamp>_info.log, _warn.log and _error.log when set.
	Dir   string
	Color bool
	// Console defaults to stderr.
	Console io.Writer
	Now     func() time.Time
}

// ParseLevel maps a level name to a log level.
func ParseLevel(name string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Setup installs log.DefaultLogger and returns a function closing the log
// files.
func Setup(opts Options) (func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleWriter := &log.ConsoleWriter{Writer: console, ColorOutput: opts.Color, QuoteString: true}

	closeFn := func() error { return nil }
	var writer log.Writer = consoleWriter
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		stamp := now().Format("20060102_150405")
		files := make([]*log.FileWriter, 0, 3)
		open := func(suffix string) *log.FileWriter {
			fw := &log.FileWriter{
				Filename:     filepath.Join(opts.Dir, stamp+"_"+suffix+".log"),
				EnsureFolder: true,
			}
			files = append(files, fw)
			return fw
		}
		writer = &log.MultiLevelWriter{
			InfoWriter:    open("info"),
			WarnWriter:    open("warn"),
			ErrorWriter:   open("error"),
			ConsoleWriter: consoleWriter,
			ConsoleLevel:  level,
		}
		closeFn = func() error {
			var errs []error
			for _, fw := range files {
				if err := fw.Close(); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}
	}

	log.DefaultLogger = log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
		Writer:     writer,
	}
	return closeFn, nil
}
