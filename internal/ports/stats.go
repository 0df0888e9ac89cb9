package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/staticstr/intern"
	"github.com/Amund211/staticstr/internal/logging"
	"github.com/Amund211/staticstr/internal/ratelimiting"
	"github.com/Amund211/staticstr/internal/reporting"
	"github.com/Amund211/staticstr/memo"
)

type statsResponse struct {
	Success     bool   `json:"success"`
	Live        int    `json:"live"`
	Retired     int    `json:"retired"`
	Allocations int    `json:"allocations"`
	Bytes       int64  `json:"bytes"`
	MemoCells   int    `json:"memoCells"`
	Cause       string `json:"cause,omitempty"`
}

func MakeGetStatsHandler(
	pool *intern.Pool,
	registry *memo.Registry,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(4),
		ratelimiting.BurstSize(240),
	)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"cause":"Rate limit exceeded"}`))
	}

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("stats"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		NewRateLimitMiddleware(ipLimiter, IPKey, onLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats := pool.Stats()
		response := statsResponse{
			Success:     true,
			Live:        stats.Live,
			Retired:     stats.Retired,
			Allocations: stats.Allocations,
			Bytes:       stats.Bytes,
			MemoCells:   registry.Len(),
		}

		marshalled, err := json.Marshal(response)
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to marshal stats response: %w", err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"cause":"Failed to marshal response"}`))
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Returning stats", "live", stats.Live, "memoCells", response.MemoCells)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(marshalled)
	}

	return middleware(handler)
}
