package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Amund211/staticstr/internal/logging"
	"github.com/stretchr/testify/require"
)

// entries decodes the JSON lines in buf, dropping the time field
func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	result := []map[string]any{}
	for line := range strings.Lines(buf.String()) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		delete(entry, "time")
		result = append(result, entry)
	}
	buf.Reset()
	return result
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	ctx := logging.AddToContext(t.Context(), logger)

	require.Same(t, logger, logging.FromContext(ctx))
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	ctx := logging.AddToContext(t.Context(), slog.New(slog.NewJSONHandler(buf, nil)).With(slog.String("component", "memo")))

	ctx = logging.AddMetaToContext(ctx, slog.String("callSite", "a.go:1"))
	logging.FromContext(ctx).Info("computed")

	ctx = logging.AddMetaToContext(ctx, slog.String("callSite", "b.go:2"), slog.Int("worker", 3))
	logging.FromContext(ctx).Info("computed")

	require.Equal(t, []map[string]any{
		{"level": "INFO", "msg": "computed", "component": "memo", "callSite": "a.go:1"},
		{"level": "INFO", "msg": "computed", "component": "memo", "callSite": "b.go:2", "worker": float64(3)},
	}, entries(t, buf))
}

func TestFromContextFallback(t *testing.T) {
	// Not parallel: replaces the default logger
	buf := &bytes.Buffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	logging.FromContext(t.Context()).Info("no logger in context")

	require.Equal(t, []map[string]any{
		{"level": "INFO", "msg": "no logger in context", "logger": "fallback"},
	}, entries(t, buf))
}
