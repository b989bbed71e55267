// Package logger provides status-line and structured JSON logging plus run
// metrics for the meleemajors generator.
//
// Every entry carries a level, an optional label naming the subsystem that
// produced it (start.gg, ffmpeg, email, calendar, rankings) and an optional
// status (success, skip, warn, error). In text format an entry renders as a
// single human-readable line:
//
//	✅ [start.gg] scraped entrants tournament=evo2024
//
// In JSON format the same entry is one JSON object per line.
//
// Example usage:
//
//	logger.Success("email", "scheduled reminder broadcast", logger.Fields{
//	    "subject": subject,
//	})
//
//	logger.Failure("start.gg", "tournament query failed", logger.Fields{
//	    "slug": slug,
//	}, err)
//
//	logger.IncrCounter("tournaments.built")
//	logger.RecordTiming("startgg.query", duration)
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Status is the outcome an entry reports.
type Status string

const (
	StatusNone    Status = ""
	StatusSuccess Status = "success"
	StatusSkip    Status = "skip"
	StatusWarn    Status = "warn"
	StatusError   Status = "error"
	StatusHeading Status = "heading"
)

// Format selects how entries are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", s)
	}
}

// Logger writes status lines or structured entries
type Logger struct {
	mu       sync.Mutex
	minLevel Level
	format   Format
	output   io.Writer
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Label     string `json:"label,omitempty"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(LevelInfo, os.Stdout)
}

// New creates a JSON logger with the specified minimum log level and output.
// Messages below the minimum level are discarded.
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		format:   FormatJSON,
		output:   output,
	}
}

// NewWithFormat creates a logger rendering entries in the given format.
func NewWithFormat(level Level, format Format, output io.Writer) *Logger {
	l := New(level, output)
	l.format = format
	return l
}

// SetDefault sets the package-level logger used by the convenience functions.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

func (l *Logger) log(level Level, status Status, label, message string, fields Fields, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Label:     label,
		Status:    string(status),
		Message:   message,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == FormatText {
		fmt.Fprintln(l.output, formatText(entry, status))
		return
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		// Fallback to plain text if JSON marshal fails
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}

	fmt.Fprintln(l.output, string(data))
}

func (l *Logger) shouldLog(level Level) bool {
	levels := map[Level]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levels[level] >= levels[l.minLevel]
}

// formatText renders an entry as one status line.
func formatText(entry LogEntry, status Status) string {
	if status == StatusHeading {
		return fmt.Sprintf("\n== %s ==", entry.Message)
	}

	var b strings.Builder
	switch status {
	case StatusSuccess:
		b.WriteString("✅ ")
	case StatusSkip:
		b.WriteString("➖ ")
	case StatusWarn:
		b.WriteString("⚠️  ")
	case StatusError:
		b.WriteString("❌ ")
	}
	if entry.Label != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Label)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%q", entry.Error)
	}
	return b.String()
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, StatusNone, "", message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, StatusNone, "", message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, StatusWarn, "", message, fields, nil)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, StatusError, "", message, fields, err)
}

// Heading starts a new section, one per tournament.
func (l *Logger) Heading(title string) {
	l.log(LevelInfo, StatusHeading, "", title, nil, nil)
}

// Success reports a completed action for a subsystem.
func (l *Logger) Success(label, message string, fields Fields) {
	l.log(LevelInfo, StatusSuccess, label, message, fields, nil)
}

// Skip reports an action that was intentionally not performed.
func (l *Logger) Skip(label, message string, fields Fields) {
	l.log(LevelInfo, StatusSkip, label, message, fields, nil)
}

// Warning reports a recoverable problem for a subsystem.
func (l *Logger) Warning(label, message string, fields Fields) {
	l.log(LevelWarn, StatusWarn, label, message, fields, nil)
}

// Failure reports a failed action for a subsystem.
func (l *Logger) Failure(label, message string, fields Fields, err error) {
	l.log(LevelError, StatusError, label, message, fields, err)
}

// Package-level convenience functions using default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}

// Heading starts a section on the default logger
func Heading(title string) {
	defaultLogger.Heading(title)
}

// Success logs a success status line on the default logger
func Success(label, message string, fields Fields) {
	defaultLogger.Success(label, message, fields)
}

// Skip logs a skip status line on the default logger
func Skip(label, message string, fields Fields) {
	defaultLogger.Skip(label, message, fields)
}

// Warning logs a labeled warning on the default logger
func Warning(label, message string, fields Fields) {
	defaultLogger.Warning(label, message, fields)
}

// Failure logs a labeled failure on the default logger
func Failure(label, message string, fields Fields, err error) {
	defaultLogger.Failure(label, message, fields, err)
}

// Metrics tracks counters, gauges and timings for a generator run.
// All operations are thread-safe.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

var defaultMetrics *Metrics

func init() {
	defaultMetrics = NewMetrics()
}

// NewMetrics creates a new metrics tracker with empty counters, gauges, and timings.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter increments a counter by 1.
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// Counter returns the current value of a counter.
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// SetGauge sets a gauge to the specified value, overwriting any previous value.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTiming records a duration measurement.
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], duration)
}

// GetSnapshot returns a deep copy of all metrics as a map containing:
//   - "counters": map of counter names to values
//   - "gauges": map of gauge names to values
//   - "timings": map of timing names to statistics (count, total, average, min, max)
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]interface{})

	counters := make(map[string]int64)
	for k, v := range m.counters {
		counters[k] = v
	}
	snapshot["counters"] = counters

	gauges := make(map[string]float64)
	for k, v := range m.gauges {
		gauges[k] = v
	}
	snapshot["gauges"] = gauges

	timings := make(map[string]map[string]interface{})
	for name, durations := range m.timings {
		if len(durations) == 0 {
			continue
		}

		var total time.Duration
		min := durations[0]
		max := durations[0]
		for _, d := range durations {
			total += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}

		timings[name] = map[string]interface{}{
			"count":   len(durations),
			"total":   total.String(),
			"average": (total / time.Duration(len(durations))).String(),
			"min":     min.String(),
			"max":     max.String(),
		}
	}
	snapshot["timings"] = timings

	return snapshot
}

// IncrCounter increments a counter on the default metrics tracker.
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// SetGauge sets a gauge on the default metrics tracker.
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker.
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of all metrics from the default tracker.
func GetMetricsSnapshot() map[string]interface{} {
	return defaultMetrics.GetSnapshot()
}

// DefaultMetrics returns the package-level metrics tracker.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
