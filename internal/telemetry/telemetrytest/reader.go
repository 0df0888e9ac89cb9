// Package telemetrytest installs an in-memory meter provider so tests can
// assert on the instruments the packages register at init.
package telemetrytest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// The global meter provider only forwards to the first provider it is given,
// so every test in a process shares one reader.
var manualReader = sync.OnceValue(func() *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	return reader
})

func Reader() *sdkmetric.ManualReader {
	return manualReader()
}

// CounterValue sums the data points of the int64 counter called name whose
// attributes include all of attrs.
func CounterValue(t *testing.T, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, Reader().Collect(t.Context(), &rm))

	var total int64
	for _, scopeMetrics := range rm.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)

			for _, dataPoint := range sum.DataPoints {
				if matches(dataPoint.Attributes, attrs) {
					total += dataPoint.Value
				}
			}
		}
	}
	return total
}

func matches(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, attr := range attrs {
		value, ok := set.Value(attr.Key)
		if !ok || value.Emit() != attr.Value.Emit() {
			return false
		}
	}
	return true
}
