package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// L is the fallback logger returned by G when the context carries
// none.
var L Logger = FromEntry(logrus.NewEntry(logrus.StandardLogger()))

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// G returns the logger stored in ctx, or L.
func G(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	return L
}
