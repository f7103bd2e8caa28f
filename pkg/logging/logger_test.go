/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for logger configuration, file output, cleanup and the custom formatters.
*/

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultLoggerConfig().Validate())

	cfg := DefaultLoggerConfig()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultLoggerConfig()
	cfg.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultLoggerConfig()
	cfg.MaxFiles = 0
	assert.Error(t, cfg.Validate())

	cfg.OutputDir = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoggerWritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	l, err := NewLogger(&LoggerConfig{
		Level:     "info",
		Format:    FormatCustom,
		OutputDir: dir,
		MaxFiles:  5,
		Console:   &console,
	})
	require.NoError(t, err)

	l.GetLogger().WithFields(logrus.Fields{
		"module":  "sqli",
		"payload": "1'",
	}).Warn("Vulnerability found")
	path := l.FilePath()
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[FINDING] Vulnerability found")
	assert.Contains(t, string(data), "module=sqli")
	assert.Equal(t, string(data), console.String())
}

func TestLoggerCleanupKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"a", "b", "c"} {
		p := filepath.Join(dir, "punk-fuzzer_"+name+".log")
		require.NoError(t, os.WriteFile(p, nil, 0644))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	l, err := NewLogger(&LoggerConfig{
		Level:     "info",
		Format:    FormatJSON,
		OutputDir: dir,
		MaxFiles:  2,
		Console:   &bytes.Buffer{},
	})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "punk-fuzzer_a.log"))
	assert.NotContains(t, files, filepath.Join(dir, "punk-fuzzer_b.log"))
}

func TestCustomFormatterSortsFields(t *testing.T) {
	f := &CustomFormatter{}
	entry := &logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "Module finished",
		Data: logrus.Fields{
			"module":  "xss",
			"elapsed": 1500 * time.Millisecond,
			"error":   errors.New("boom"),
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "INFO Module finished elapsed=1.5s error=boom module=xss\n", string(out))
}

func TestFuzzerFormatterPrefix(t *testing.T) {
	f := &FuzzerFormatter{}
	out, err := f.Format(&logrus.Entry{
		Level:   logrus.WarnLevel,
		Message: "Vulnerability found",
		Data:    logrus.Fields{"run_id": "0123456789abcdef"},
	})
	require.NoError(t, err)
	assert.Equal(t, "WARNING [FINDING] Vulnerability found run_id=01234567\n", string(out))

	assert.Equal(t, "GATE", fuzzerPrefix("Target not fuzz-worthy, skipping"))
	assert.Equal(t, "", fuzzerPrefix("hello"))
}
