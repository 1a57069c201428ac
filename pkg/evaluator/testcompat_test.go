package evaluator

import (
	"context"
	"testing"
)

// testContext mirrors testing.T.Context (Go 1.24): the context is canceled
// just before cleanup functions registered by the test run.
func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
