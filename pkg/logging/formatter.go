/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for the punk fuzzer. Renders one line per entry with a
colored level, a fuzzer prefix derived from the message and sorted key=value fields.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	timestampColor = color.New(color.FgCyan)
	callerColor    = color.New(color.FgYellow)
	prefixColor    = color.New(color.FgMagenta)
	keyColor       = color.New(color.FgBlue)
	valueColor     = color.New(color.FgGreen)
)

// CustomFormatter renders compact single-line entries
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, ""), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string) []byte {
	var output strings.Builder

	if f.Timestamp {
		output.WriteString(f.paint(timestampColor, entry.Time.Format("2006-01-02 15:04:05.000")))
		output.WriteByte(' ')
	}

	output.WriteString(f.paint(levelColor(entry.Level), strings.ToUpper(entry.Level.String())))
	output.WriteByte(' ')

	if prefix != "" {
		output.WriteString(f.paint(prefixColor, "["+prefix+"]"))
		output.WriteByte(' ')
	}

	if f.Caller && entry.HasCaller() {
		output.WriteString(f.paint(callerColor, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line)))
		output.WriteByte(' ')
	}

	output.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		output.WriteByte(' ')
		output.WriteString(f.formatFields(entry.Data))
	}

	output.WriteByte('\n')
	return []byte(output.String())
}

func (f *CustomFormatter) paint(c *color.Color, s string) string {
	if !f.Colors {
		return s
	}
	return c.Sprint(s)
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgWhite)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgMagenta)
	}
}

// formatFields renders fields sorted by key so lines are stable
func (f *CustomFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, f.paint(keyColor, k)+"="+f.paint(valueColor, formatValue(k, fields[k])))
	}
	return strings.Join(parts, " ")
}

func formatValue(key string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.Round(time.Millisecond).String()
	case time.Time:
		return v.Format("15:04:05.000")
	case error:
		return v.Error()
	case string:
		// run ids are long and only the head is useful on a console line
		if key == "run_id" && len(v) > 8 {
			return v[:8]
		}
		if len(v) > 120 {
			return v[:120] + "..."
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FuzzerFormatter adds a prefix naming the kind of fuzz event
type FuzzerFormatter struct {
	CustomFormatter
}

func (f *FuzzerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, fuzzerPrefix(entry.Message)), nil
}

func fuzzerPrefix(message string) string {
	switch {
	case strings.Contains(message, "Vulnerability found"):
		return "FINDING"
	case strings.Contains(message, "Module"):
		return "MODULE"
	case strings.Contains(message, "Fuzz request"):
		return "REQUEST"
	case strings.Contains(message, "fuzz-worthy"):
		return "GATE"
	case strings.Contains(message, "Statistics"):
		return "STATS"
	case strings.Contains(message, "Metrics"):
		return "METRICS"
	default:
		return ""
	}
}
