package monitoring

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestLogger_ScoringAndBatch(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	logger.ScoringLogger("economic", "Argentina", 75, "Critical", 6, 2*time.Millisecond)
	logger.BatchLogger("food", "run-1", 10, 4, time.Second, true)
	logger.CacheLogger("get", "dataset:wdi", true, 3)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2, "debug cache log filtered at info")

	assert.Equal(t, "Crisis Scored", entries[0]["msg"])
	assert.Equal(t, "Argentina", entries[0]["entity"])
	assert.Equal(t, 75.0, entries[0]["score"])
	assert.Equal(t, false, entries[0]["neutral"])
	assert.Contains(t, entries[0], "timestamp")
	assert.NotContains(t, entries[0], "time")

	assert.Equal(t, "Batch Completed", entries[1]["msg"])
	assert.Equal(t, "run-1", entries[1]["run_id"])
	assert.Equal(t, true, entries[1]["persisted"])
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementCacheMiss()
	m.RecordScored("economic", 5, 1)
	m.RecordScored("economic", 2, 0)
	m.RecordScored("food", 1, 1)
	m.RecordBatch(7)
	m.RecordForecast(true)
	m.RecordForecast(false)
	m.RecordStress()
	m.IncrementRateLimitBlock()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.InDelta(t, 33.33, stats["cache_hit_rate_percent"], 0.01)
	assert.Equal(t, int64(1), stats["batch_runs"])
	assert.Equal(t, int64(7), stats["persisted_results"])
	assert.Equal(t, int64(2), stats["forecasts"])
	assert.Equal(t, int64(1), stats["insufficient_history"])
	assert.Equal(t, int64(1), stats["stress_runs"])
	assert.Equal(t, int64(1), stats["rate_limit_blocks"])

	scoring := m.GetScoringStats()
	assert.Equal(t, map[string]int64{"scored": 7, "neutral": 1}, scoring["economic"])
	assert.Equal(t, map[string]int64{"scored": 1, "neutral": 1}, scoring["food"])

	m.Reset()
	stats = m.GetStats()
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Empty(t, m.GetScoringStats())
}

func TestMetrics_Percentiles(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(50))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}
	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))

	for i := 0; i < maxResponseSamples+10; i++ {
		m.RecordResponseTime(time.Millisecond)
	}
	assert.Len(t, m.ResponseTimes, maxResponseSamples)
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")
	metrics := NewMetrics()

	r := gin.New()
	r.Use(MonitoringMiddleware(metrics, logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("store unavailable"))
		c.Status(http.StatusInternalServerError)
	})

	for _, path := range []string{"/ok", "/ok", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(3), metrics.RequestCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
	assert.Equal(t, map[int]int64{200: 2, 500: 1}, metrics.GetStatusCodeDistribution())

	var messages []string
	for _, e := range decodeLines(t, &buf) {
		messages = append(messages, e["msg"].(string))
	}
	assert.Contains(t, messages, "API Error")
	assert.Contains(t, messages, "System Event")
}

func TestTracer_ChildSpansShareTrace(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewTracer("crisis-api", NewLogger(&buf, "debug"))

	root, ctx := tracer.StartSpan(context.Background(), "batch")
	assert.Equal(t, 1, tracer.ActiveSpans())

	var child *Span
	err := TraceFunction(ctx, tracer, "score", func(ctx context.Context) error {
		child = SpanFromContext(ctx)
		assert.Equal(t, 2, tracer.ActiveSpans())
		return errors.New("bad record")
	})
	require.Error(t, err)

	require.NotNil(t, child)
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, SpanStatusError, child.Status)
	assert.Equal(t, "bad record", child.Error)

	tracer.EndSpan(root, nil)
	assert.Equal(t, 0, tracer.ActiveSpans())
	assert.Equal(t, SpanStatusOK, root.Status)
	assert.Len(t, decodeLines(t, &buf), 2)
}

func TestTracingMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := NewTracer("crisis-api", NewLogger(&bytes.Buffer{}, "info"))

	var seen string
	r := gin.New()
	r.Use(TracingMiddleware(tracer))
	r.GET("/health", func(c *gin.Context) {
		seen = SpanFromContext(c.Request.Context()).TraceID
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "fresh uuid when none sent")
	assert.Equal(t, 0, tracer.ActiveSpans())
}
