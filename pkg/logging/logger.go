/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for the punk fuzzer. Provides structured logging to the console and
a timestamped file per run, in JSON, text or the custom fuzzer format, with cleanup of old log
files on close.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// OutputFormat selects the entry encoding
type OutputFormat string

const (
	FormatJSON   OutputFormat = "json"
	FormatText   OutputFormat = "text"
	FormatCustom OutputFormat = "custom"
)

const logFilePattern = "punk-fuzzer_*.log"

// LoggerConfig configures console and file output. Level takes any name
// logrus understands.
type LoggerConfig struct {
	Level     string       `json:"level"`
	Format    OutputFormat `json:"format"`
	OutputDir string       `json:"output_dir"` // empty disables the log file
	MaxFiles  int          `json:"max_files"`
	Timestamp bool         `json:"timestamp"`
	Caller    bool         `json:"caller"`
	Colors    bool         `json:"colors"`

	// Console is where entries go besides the file; nil means stdout
	Console io.Writer `json:"-"`
}

// DefaultLoggerConfig returns info level, custom format, ten files in ./logs
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     "info",
		Format:    FormatCustom,
		OutputDir: "./logs",
		MaxFiles:  10,
		Timestamp: true,
		Colors:    true,
	}
}

func (c *LoggerConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return err
	}
	if _, err := newFormatter(c); err != nil {
		return err
	}
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive when logging to %s", c.OutputDir)
	}
	return nil
}

// Logger is a logrus logger teed into a per-run log file
type Logger struct {
	cfg     *LoggerConfig
	entry   *logrus.Logger
	file    *os.File
	path    string
	started time.Time
}

// NewLogger builds a Logger; a nil config means DefaultLoggerConfig
func NewLogger(cfg *LoggerConfig) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	level, _ := logrus.ParseLevel(cfg.Level)
	formatter, _ := newFormatter(cfg)

	base := logrus.New()
	base.SetLevel(level)
	base.SetReportCaller(cfg.Caller)
	base.SetFormatter(formatter)

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}
	base.SetOutput(console)

	l := &Logger{cfg: cfg, entry: base, started: time.Now()}
	if cfg.OutputDir == "" {
		return l, nil
	}
	if err := l.openFile(console); err != nil {
		return nil, err
	}
	return l, nil
}

func newFormatter(cfg *LoggerConfig) (logrus.Formatter, error) {
	shortCaller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch cfg.Format {
	case FormatJSON:
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339, CallerPrettyfier: shortCaller}, nil
	case FormatText:
		return &logrus.TextFormatter{
			FullTimestamp:    cfg.Timestamp,
			TimestampFormat:  time.RFC3339,
			DisableColors:    !cfg.Colors,
			CallerPrettyfier: shortCaller,
		}, nil
	case FormatCustom:
		return &FuzzerFormatter{CustomFormatter: CustomFormatter{
			Timestamp: cfg.Timestamp,
			Caller:    cfg.Caller,
			Colors:    cfg.Colors,
		}}, nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// openFile tees the console into <dir>/punk-fuzzer_<start>.log
func (l *Logger) openFile(console io.Writer) error {
	dir := l.cfg.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	name := "punk-fuzzer_" + l.started.Format("2006-01-02_15-04-05") + ".log"
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	l.file, l.path = f, path
	l.entry.SetOutput(io.MultiWriter(console, f))

	l.entry.WithField("log_file", path).Debug("Logging initialized")
	return nil
}

// pruneLogs deletes the oldest log files in dir until keep remain
func pruneLogs(dir string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	if err != nil || len(matches) <= keep {
		return err
	}

	type logFile struct {
		path string
		mod  time.Time
	}
	files := make([]logFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, logFile{m, info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	for len(files) > keep {
		if err := os.Remove(files[0].path); err != nil && !os.IsNotExist(err) {
			return err
		}
		files = files[1:]
	}
	return nil
}

// LogRun logs the start of a fuzz run against a target
func (l *Logger) LogRun(rawURL, param string) {
	l.entry.WithFields(logrus.Fields{"url": rawURL, "param": param}).Info("Fuzzing target")
}

// LogSummary logs end-of-run totals
func (l *Logger) LogSummary(findings int, requests, failed int64) {
	l.entry.WithFields(logrus.Fields{
		"findings":        findings,
		"requests":        requests,
		"failed_requests": failed,
		"uptime":          time.Since(l.started),
	}).Info("Statistics update")
}

// FilePath returns the current log file, or "" when file output is off
func (l *Logger) FilePath() string { return l.path }

// Close closes the log file, then prunes the directory down to MaxFiles
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	l.entry.SetOutput(io.Discard)
	l.file.Close()
	l.file = nil
	if err := pruneLogs(l.cfg.OutputDir, l.cfg.MaxFiles); err != nil {
		return fmt.Errorf("pruning log files: %w", err)
	}
	return nil
}

func (l *Logger) GetLogger() *logrus.Logger { return l.entry }
