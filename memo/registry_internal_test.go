package memo

import (
	"sync"
	"testing"

	"github.com/Amund211/staticstr/intern"
	"github.com/Amund211/staticstr/internal/callsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCompletedLookupSkipsCache(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(intern.New())
	key := callsite.Key{File: "registry_internal_test.go", Line: 1}
	require.Equal(t, "done", registry.Do(t.Context(), key, func() string { return "done" }))

	// Any use of the cache from here on dereferences nil
	registry.cells = nil

	wg := sync.WaitGroup{}
	for range 16 {
		wg.Go(func() {
			result := registry.Do(t.Context(), key, func() string {
				t.Error("Unreachable code executed")
				return ""
			})
			assert.Equal(t, "done", result)
		})
	}
	wg.Wait()

	require.Equal(t, StateComplete, registry.State(key))
}

func BenchmarkRegistryDoCompleted(b *testing.B) {
	registry := NewRegistry(intern.New())
	key := callsite.Key{File: "registry_internal_test.go", Line: 2}
	registry.Do(b.Context(), key, func() string { return "done" })

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			registry.Do(b.Context(), key, func() string { return "" })
		}
	})
}
