package monitoring

import (
	"io"
	"log/slog"
	"os"
	"time"
)

var startTime = time.Now()

// Logger provides structured JSON logging with domain helpers
type Logger struct {
	*slog.Logger
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger writing to w at level.
func NewLogger(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
	return &Logger{Logger: slog.New(handler)}
}

// Setup builds a stdout logger at level and installs it as the slog default.
func Setup(level string) *Logger {
	l := NewLogger(os.Stdout, level)
	slog.SetDefault(l.Logger)
	return l
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs one scored record.
func (l *Logger) ScoringLogger(domain, entity string, score float64, classification string, evaluated int, duration time.Duration) {
	l.Info("Crisis Scored",
		"domain", domain,
		"entity", entity,
		"score", score,
		"classification", classification,
		"evaluated_rules", evaluated,
		"neutral", evaluated == 0,
		"duration_ms", duration.Milliseconds(),
	)
}

// BatchLogger logs a completed batch run.
func (l *Logger) BatchLogger(domain, runID string, records, results int, duration time.Duration, persisted bool) {
	l.Info("Batch Completed",
		"domain", domain,
		"run_id", runID,
		"records", records,
		"results", results,
		"persisted", persisted,
		"duration_ms", duration.Milliseconds(),
	)
}

// ForecastLogger logs a forecast request.
func (l *Logger) ForecastLogger(entity, indicator string, history, horizon int, insufficient bool) {
	l.Info("Forecast Computed",
		"entity", entity,
		"indicator", indicator,
		"history_points", history,
		"horizon", horizon,
		"insufficient_history", insufficient,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key", key,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Warn("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}
