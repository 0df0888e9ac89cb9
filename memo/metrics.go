package memo

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type memoMetricsCollection struct {
	calls        metric.Int64Counter
	computations metric.Int64Counter
}

var metrics memoMetricsCollection

var tracer = otel.Tracer("staticstr/memo")

type callResult string

const (
	resultComputed callResult = "computed"
	resultCached   callResult = "cached"
	resultPoisoned callResult = "poisoned"
)

func init() {
	const name = "staticstr/memo"
	meter := otel.Meter(name)

	calls, err := meter.Int64Counter(
		"memo/calls",
		metric.WithDescription("Number of memoized calls, by whether the call ran the computation"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create calls metric: %w", err))
	}

	computations, err := meter.Int64Counter(
		"memo/computations",
		metric.WithDescription("Number of memoized computations run, by outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create computations metric: %w", err))
	}

	metrics = memoMetricsCollection{
		calls:        calls,
		computations: computations,
	}
}

func recordCall(ctx context.Context, result callResult) {
	metrics.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("result", string(result))))
}

// recordComputation takes the state the computation left its cell in
func recordComputation(ctx context.Context, outcome State) {
	metrics.computations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}
