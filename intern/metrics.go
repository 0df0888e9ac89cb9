package intern

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type internMetricsCollection struct {
	lookups   metric.Int64Counter
	evictions metric.Int64Counter
}

var metrics internMetricsCollection

var (
	hitOption  = metric.WithAttributes(attribute.String("result", "hit"))
	missOption = metric.WithAttributes(attribute.String("result", "miss"))
)

func init() {
	const name = "staticstr/intern"
	meter := otel.Meter(name)

	lookups, err := meter.Int64Counter(
		"intern/lookups",
		metric.WithDescription("Number of intern calls, by whether the content was already tracked"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create lookups metric: %w", err))
	}

	evictions, err := meter.Int64Counter(
		"intern/evictions",
		metric.WithDescription("Number of tracked strings evicted from the pool"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create evictions metric: %w", err))
	}

	metrics = internMetricsCollection{
		lookups:   lookups,
		evictions: evictions,
	}
}

func recordLookup(hit bool) {
	if hit {
		metrics.lookups.Add(context.Background(), 1, hitOption)
		return
	}
	metrics.lookups.Add(context.Background(), 1, missOption)
}

func recordEviction() {
	metrics.evictions.Add(context.Background(), 1)
}
