// Package logging provides structured logging for evaluation runs.
// The Logger interface is backed by logrus; NullLogger, MultiLogger
// and RedactingLogger decorate or replace it.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger defines the interface for structured harness logging.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning message.
	Warn(msg string, fields ...Field)

	// Error logs an error message.
	Error(msg string, fields ...Field)

	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// WithFields returns a Logger with additional default
	// fields attached to every subsequent log entry.
	WithFields(fields ...Field) Logger

	// LogAPIRequest logs an outbound API request.
	LogAPIRequest(request APIRequestLog)

	// LogAPIResponse logs an inbound API response.
	LogAPIResponse(response APIResponseLog)

	// Close flushes any buffers and releases resources.
	Close() error
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// APIRequestLog captures API request details.
type APIRequestLog struct {
	RequestID  string            `json:"request_id"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
	BodyLength int               `json:"body_length"`
}

// APIResponseLog captures API response details.
type APIResponseLog struct {
	RequestID      string            `json:"request_id"`
	StatusCode     int               `json:"status_code"`
	Headers        map[string]string `json:"headers"`
	BodyLength     int               `json:"body_length"`
	ResponseTimeMs int64             `json:"response_time_ms"`
}

// Config selects the level, format and destination of a logrus
// backed Logger.
type Config struct {
	Level  string    // trace, debug, info, warn, error
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
}

// LogrusLogger implements Logger on a logrus entry.
type LogrusLogger struct {
	entry  *logrus.Entry
	closer io.Closer
}

// New builds a Logger from cfg.
func New(cfg Config) (*LogrusLogger, error) {
	l := logrus.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	l.SetLevel(lvl)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		})
	default:
		return nil, errors.Errorf("invalid log format %q", cfg.Format)
	}

	if cfg.Output != nil {
		l.SetOutput(cfg.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}, nil
}

// NewFile builds a Logger writing to path, appending to any
// existing content. Close releases the file.
func NewFile(cfg Config, path string) (*LogrusLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	cfg.Output = f
	l, err := New(cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	l.closer = f
	return l, nil
}

// FromEntry wraps an existing logrus entry.
func FromEntry(entry *logrus.Entry) *LogrusLogger {
	return &LogrusLogger{entry: entry}
}

// Entry exposes the underlying logrus entry.
func (l *LogrusLogger) Entry() *logrus.Entry { return l.entry }

func (l *LogrusLogger) with(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(toLogrus(fields))
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.with(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.with(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.with(fields).Error(msg)
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.with(fields).Debug(msg)
}

func (l *LogrusLogger) WithFields(fields ...Field) Logger {
	return &LogrusLogger{entry: l.with(fields), closer: l.closer}
}

func (l *LogrusLogger) LogAPIRequest(request APIRequestLog) {
	l.entry.WithFields(logrus.Fields{
		"request_id":  request.RequestID,
		"method":      request.Method,
		"url":         request.URL,
		"headers":     request.Headers,
		"body_length": request.BodyLength,
	}).Debug("api request")
}

func (l *LogrusLogger) LogAPIResponse(response APIResponseLog) {
	l.entry.WithFields(logrus.Fields{
		"request_id":       response.RequestID,
		"status_code":      response.StatusCode,
		"headers":          response.Headers,
		"body_length":      response.BodyLength,
		"response_time_ms": response.ResponseTimeMs,
	}).Debug("api response")
}

func (l *LogrusLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
