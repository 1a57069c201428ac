package logging

import "github.com/hashicorp/go-multierror"

// MultiLogger writes every entry to each of its loggers, for example
// the console and a JSON log file.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger returns a Logger writing to every non-nil logger.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) Info(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Info(msg, fields...) })
}

func (m *MultiLogger) Warn(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Warn(msg, fields...) })
}

func (m *MultiLogger) Error(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Error(msg, fields...) })
}

func (m *MultiLogger) Debug(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Debug(msg, fields...) })
}

func (m *MultiLogger) WithFields(fields ...Field) Logger {
	out := &MultiLogger{loggers: make([]Logger, 0, len(m.loggers))}
	m.each(func(l Logger) { out.loggers = append(out.loggers, l.WithFields(fields...)) })
	return out
}

func (m *MultiLogger) LogAPIRequest(request APIRequestLog) {
	m.each(func(l Logger) { l.LogAPIRequest(request) })
}

func (m *MultiLogger) LogAPIResponse(response APIResponseLog) {
	m.each(func(l Logger) { l.LogAPIResponse(response) })
}

// Close closes every logger and joins their errors.
func (m *MultiLogger) Close() error {
	var result *multierror.Error
	m.each(func(l Logger) {
		if err := l.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result.ErrorOrNil()
}
