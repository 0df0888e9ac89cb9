package memo

import (
	"context"
	"sync"

	"github.com/Amund211/staticstr/intern"
	"github.com/Amund211/staticstr/internal/callsite"
)

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(intern.Default())
})

// Default returns the process-wide registry used by Once. Its results are
// interned in intern.Default().
func Default() *Registry {
	return defaultRegistry()
}

// Once runs compute the first time the call at this source position is
// evaluated and returns the interned result on every evaluation after that.
// The position is file and line: inlined copies and generic instantiations of
// the enclosing function share it, and so do two Once calls on one line.
func Once(compute func() string) string {
	return Default().Do(context.Background(), callsite.Caller(1), compute)
}

func OnceContext(ctx context.Context, compute func() string) string {
	return Default().Do(ctx, callsite.Caller(1), compute)
}
