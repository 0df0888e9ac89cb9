// Package stress drives the intern pool and the memoizer from many goroutines
// at once and checks that what callers observe stays consistent.
package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Amund211/staticstr/intern"
	"github.com/Amund211/staticstr/internal/callsite"
	"github.com/Amund211/staticstr/internal/logging"
	"github.com/Amund211/staticstr/internal/ratelimiting"
	"github.com/Amund211/staticstr/internal/reporting"
	"github.com/Amund211/staticstr/memo"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrInvariantViolated = errors.New("invariant violated")

type Options struct {
	Workers        int
	OpsPerSecond   int
	Duration       time.Duration
	DistinctValues int
	// Seed makes the operation mix reproducible
	Seed uint64
}

type Report struct {
	Interns          int64
	Lookups          int64
	Evictions        int64
	MemoCalls        int64
	MemoComputations int64
}

func (r Report) Total() int64 {
	return r.Interns + r.Lookups + r.Evictions + r.MemoCalls
}

type counters struct {
	interns          atomic.Int64
	lookups          atomic.Int64
	evictions        atomic.Int64
	memoCalls        atomic.Int64
	memoComputations atomic.Int64
}

func (c *counters) report() Report {
	return Report{
		Interns:          c.interns.Load(),
		Lookups:          c.lookups.Load(),
		Evictions:        c.evictions.Load(),
		MemoCalls:        c.memoCalls.Load(),
		MemoComputations: c.memoComputations.Load(),
	}
}

type runner struct {
	pool     *intern.Pool
	registry *memo.Registry
	limiter  ratelimiting.RateLimiter
	values   []string
	memoKey  callsite.Key
	memoWant string
	counters *counters
	seed     uint64
}

func validateOptions(opts Options) error {
	if opts.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", opts.Workers)
	}
	if opts.OpsPerSecond <= 0 {
		return fmt.Errorf("ops per second must be positive, got %d", opts.OpsPerSecond)
	}
	if opts.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", opts.Duration)
	}
	if opts.DistinctValues <= 0 {
		return fmt.Errorf("distinct values must be positive, got %d", opts.DistinctValues)
	}
	return nil
}

// Run drives pool and registry until opts.Duration has passed or ctx is done.
// A violated invariant or a panic in any worker stops all workers and is
// returned together with the counts gathered so far.
func Run(ctx context.Context, pool *intern.Pool, registry *memo.Registry, opts Options) (Report, error) {
	if err := validateOptions(opts); err != nil {
		return Report{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	perWorker := max(1, opts.OpsPerSecond/opts.Workers)
	limiter, stop := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(perWorker),
		ratelimiting.BurstSize(perWorker),
	)
	defer stop()

	values := make([]string, opts.DistinctValues)
	for i := range values {
		values[i] = "value-" + strconv.Itoa(i)
	}

	// Every run memoizes on its own key so a registry can be shared between runs
	runID := uuid.New().String()
	memoKey := callsite.Caller(0).With("run " + runID)

	r := &runner{
		pool:     pool,
		registry: registry,
		limiter:  limiter,
		values:   values,
		memoKey:  memoKey,
		memoWant: fmt.Sprintf("stress run with %d distinct values", opts.DistinctValues),
		counters: &counters{},
		seed:     opts.Seed,
	}

	ctx = logging.AddMetaToContext(ctx, slog.String("runID", runID))
	ctx = reporting.AddTagsToContext(ctx, map[string]string{"runID": runID})
	logger := logging.FromContext(ctx)
	logger.InfoContext(ctx, "Starting stress run", slog.Int("workers", opts.Workers), slog.Int("opsPerWorkerPerSecond", perWorker))

	g, gctx := errgroup.WithContext(ctx)
	for worker := range opts.Workers {
		g.Go(func() error {
			workerCtx := logging.AddMetaToContext(gctx, slog.Int("worker", worker))
			workerCtx = reporting.AddTagsToContext(workerCtx, map[string]string{"worker": strconv.Itoa(worker)})
			return r.work(workerCtx, worker)
		})
	}
	err := g.Wait()

	report := r.counters.report()
	if err == nil && report.MemoCalls > 0 && report.MemoComputations != 1 {
		err = fmt.Errorf("%w: memoized computation ran %d times", ErrInvariantViolated, report.MemoComputations)
	}

	if err != nil {
		logger.ErrorContext(ctx, "Stress run failed", slog.String("error", err.Error()), slog.Int64("ops", report.Total()))
		return report, err
	}

	logger.InfoContext(ctx, "Stress run complete", slog.Int64("ops", report.Total()))
	return report, nil
}

func (r *runner) work(ctx context.Context, worker int) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := reporting.PanicError(recovered)
			reporting.Report(ctx, panicErr)
			err = fmt.Errorf("worker %d panicked: %w", worker, panicErr)
		}
	}()

	rng := rand.New(rand.NewPCG(r.seed, uint64(worker)))
	key := ratelimiting.WorkerKey(worker)

	for {
		// Wait only fails once ctx is done or the next token lies past the
		// deadline, both of which end the run
		if err := r.limiter.Wait(ctx, key); err != nil {
			return nil
		}

		if err := r.step(ctx, rng); err != nil {
			reporting.Report(ctx, err)
			return err
		}
	}
}

func (r *runner) step(ctx context.Context, rng *rand.Rand) error {
	value := r.values[rng.IntN(len(r.values))]

	switch op := rng.IntN(10); {
	case op < 5:
		r.counters.interns.Add(1)
		if got := r.pool.Intern(value); got != value {
			return fmt.Errorf("%w: interned %q as %q", ErrInvariantViolated, value, got)
		}
	case op < 8:
		r.counters.lookups.Add(1)
		r.pool.IsInterned(value)
	case op < 9:
		r.counters.evictions.Add(1)
		r.pool.Evict(value)
	default:
		r.counters.memoCalls.Add(1)
		got := r.registry.Do(ctx, r.memoKey, func() string {
			r.counters.memoComputations.Add(1)
			return r.memoWant
		})
		if got != r.memoWant {
			return fmt.Errorf("%w: memoized %q, want %q", ErrInvariantViolated, got, r.memoWant)
		}
	}
	return nil
}
