package memo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Amund211/staticstr/intern"
	"github.com/Amund211/staticstr/internal/callsite"
	"github.com/Amund211/staticstr/internal/logging"
	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Registry holds one cell per call site. Results are interned in the
// registry's pool. Cells are never removed.
type Registry struct {
	pool *intern.Pool
	// cells serializes cell creation. Once created a cell is also published in
	// resolved, which serves every later lookup without taking a lock.
	cells    *ttlcache.Cache[callsite.Key, *Cell[string]]
	resolved sync.Map
}

func NewRegistry(pool *intern.Pool) *Registry {
	cells := ttlcache.New[callsite.Key, *Cell[string]](
		ttlcache.WithTTL[callsite.Key, *Cell[string]](ttlcache.NoTTL),
		ttlcache.WithDisableTouchOnHit[callsite.Key, *Cell[string]](),
	)

	return &Registry{
		pool:  pool,
		cells: cells,
	}
}

func (r *Registry) cell(key callsite.Key) *Cell[string] {
	if cell, ok := r.resolved.Load(key); ok {
		return cell.(*Cell[string])
	}

	item, _ := r.cells.GetOrSet(key, &Cell[string]{})
	cell := item.Value()
	r.resolved.Store(key, cell)
	return cell
}

// Do returns the interned result of compute, running it only if no call with
// the same key has run a computation before.
func (r *Registry) Do(ctx context.Context, key callsite.Key, compute func() string) string {
	cell := r.cell(key)

	if cell.State() == StateComplete {
		// Not logged: this is the path every completed call site takes
		recordCall(ctx, resultCached)
		return cell.Get(compute)
	}

	logger := logging.FromContext(ctx).With(slog.String("callSite", key.String()))

	computed := false
	defer func() {
		if cell.State() != StatePoisoned {
			return
		}
		recordCall(ctx, resultPoisoned)
		if !computed {
			logger.ErrorContext(ctx, "Memoized call site is poisoned")
		}
	}()

	if cell.State() == StateRunning {
		logger.DebugContext(ctx, "Waiting for memoized computation")
	}

	result := cell.Get(func() string {
		computed = true
		return r.compute(ctx, logger, key, compute)
	})

	if computed {
		recordCall(ctx, resultComputed)
	} else {
		recordCall(ctx, resultCached)
		logger.DebugContext(ctx, "Getting memoized value", slog.String("cache", "hit"))
	}
	return result
}

func (r *Registry) compute(ctx context.Context, logger *slog.Logger, key callsite.Key, compute func() string) string {
	ctx, span := tracer.Start(ctx, "memo.compute", trace.WithAttributes(
		attribute.String("memo.callsite", key.String()),
	))
	defer span.End()

	start := time.Now()
	logger.DebugContext(ctx, "Running memoized computation", slog.String("cache", "miss"))

	completed := false
	defer func() {
		if completed {
			recordComputation(ctx, StateComplete)
			return
		}
		recordComputation(ctx, StatePoisoned)
		err := fmt.Errorf("%w at %s", ErrPoisoned, key.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "Memoized computation did not complete", slog.String("error", err.Error()))
	}()

	result := r.pool.Intern(compute())
	completed = true

	logger.DebugContext(ctx, "Memoized computation complete", slog.Duration("duration", time.Since(start)))
	return result
}

// State reports the state of the cell for key without creating it.
func (r *Registry) State(key callsite.Key) State {
	if cell, ok := r.resolved.Load(key); ok {
		return cell.(*Cell[string]).State()
	}
	return StateUninitialized
}

// Len returns the number of call sites that have been seen.
func (r *Registry) Len() int {
	return r.cells.Len()
}
