package logging

import (
	"strings"

	"digital.vasic.skilleval/pkg/env"
)

// minSecretLen is the shortest value treated as a secret. Shorter
// values would mask ordinary words.
const minSecretLen = 5

// RedactingLogger masks API keys and tokens in messages, string and
// error field values, request URLs and headers before they reach
// the inner logger.
type RedactingLogger struct {
	inner    Logger
	replacer *strings.Replacer
}

// NewRedactingLogger wraps inner, masking every secret of at least
// five characters.
func NewRedactingLogger(inner Logger, secrets ...string) *RedactingLogger {
	var pairs []string
	for _, s := range secrets {
		if len(s) >= minSecretLen {
			pairs = append(pairs, s, redactValue(s))
		}
	}
	return &RedactingLogger{inner: inner, replacer: strings.NewReplacer(pairs...)}
}

// redactValue keeps the first four characters of s.
func redactValue(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func (r *RedactingLogger) fields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		switch v := f.Value.(type) {
		case string:
			out[i].Value = r.replacer.Replace(v)
		case error:
			out[i].Value = r.replacer.Replace(v.Error())
		}
	}
	return out
}

func (r *RedactingLogger) Info(msg string, fields ...Field) {
	r.inner.Info(r.replacer.Replace(msg), r.fields(fields)...)
}

func (r *RedactingLogger) Warn(msg string, fields ...Field) {
	r.inner.Warn(r.replacer.Replace(msg), r.fields(fields)...)
}

func (r *RedactingLogger) Error(msg string, fields ...Field) {
	r.inner.Error(r.replacer.Replace(msg), r.fields(fields)...)
}

func (r *RedactingLogger) Debug(msg string, fields ...Field) {
	r.inner.Debug(r.replacer.Replace(msg), r.fields(fields)...)
}

func (r *RedactingLogger) WithFields(fields ...Field) Logger {
	return &RedactingLogger{inner: r.inner.WithFields(r.fields(fields)...), replacer: r.replacer}
}

// LogAPIRequest masks the URL and the credential headers.
func (r *RedactingLogger) LogAPIRequest(request APIRequestLog) {
	request.URL = env.RedactURL(r.replacer.Replace(request.URL))
	request.Headers = env.RedactHeaders(request.Headers)
	r.inner.LogAPIRequest(request)
}

func (r *RedactingLogger) LogAPIResponse(response APIResponseLog) {
	response.Headers = env.RedactHeaders(response.Headers)
	r.inner.LogAPIResponse(response)
}

func (r *RedactingLogger) Close() error { return r.inner.Close() }
