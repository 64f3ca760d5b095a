package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the trace ID in and out of the service.
const RequestIDHeader = "X-Request-ID"

// SpanStatus represents the status of a span
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)

// Span is one timed operation. Spans of a request share its TraceID.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Tags      map[string]string `json:"tags,omitempty"`
	Error     string            `json:"error,omitempty"`
	Status    SpanStatus        `json:"status"`

	mu sync.Mutex
}

// SetTag attaches a key/value to the span.
func (s *Span) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tags[key] = value
}

type spanKey struct{}

// SpanFromContext returns the innermost span carried by ctx.
func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// Tracer logs spans and tracks the ones still open.
type Tracer struct {
	serviceName string
	logger      *Logger
	active      map[string]*Span
	mu          sync.RWMutex
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, logger *Logger) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		logger:      logger,
		active:      make(map[string]*Span),
	}
}

// StartSpan opens a span under whatever span ctx already carries. A ctx
// without one starts a new trace.
func (t *Tracer) StartSpan(ctx context.Context, operation string) (*Span, context.Context) {
	span := &Span{
		SpanID:    uuid.New().String(),
		Operation: operation,
		StartTime: time.Now(),
		Tags:      map[string]string{"service": t.serviceName},
		Status:    SpanStatusOK,
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = uuid.New().String()
	}

	t.mu.Lock()
	t.active[span.SpanID] = span
	t.mu.Unlock()

	return span, context.WithValue(ctx, spanKey{}, span)
}

// startTrace opens a span with a caller-chosen trace ID, or a fresh one when
// traceID is empty.
func (t *Tracer) startTrace(ctx context.Context, traceID, operation string) (*Span, context.Context) {
	span, ctx := t.StartSpan(ctx, operation)
	if traceID != "" {
		span.TraceID = traceID
	}
	return span, ctx
}

// EndSpan closes span and logs it.
func (t *Tracer) EndSpan(span *Span, err error) {
	span.mu.Lock()
	span.Duration = time.Since(span.StartTime)
	if err != nil {
		span.Error = err.Error()
		span.Status = SpanStatusError
	}
	attrs := []any{
		"trace_id", span.TraceID,
		"span_id", span.SpanID,
		"operation", span.Operation,
		"status", span.Status,
		"duration_ms", span.Duration.Milliseconds(),
	}
	if span.ParentID != "" {
		attrs = append(attrs, "parent_id", span.ParentID)
	}
	if span.Error != "" {
		attrs = append(attrs, "error", span.Error)
	}
	for k, v := range span.Tags {
		attrs = append(attrs, "tag_"+k, v)
	}
	span.mu.Unlock()

	t.mu.Lock()
	delete(t.active, span.SpanID)
	t.mu.Unlock()

	t.logger.Debug("Trace Span", attrs...)
}

// ActiveSpans returns the number of spans started and not yet ended.
func (t *Tracer) ActiveSpans() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// TracingMiddleware opens a root span per request. An incoming X-Request-ID
// becomes the trace ID; either way it is echoed in the response.
func TracingMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		operation := fmt.Sprintf("%s %s", c.Request.Method, c.FullPath())
		span, ctx := tracer.startTrace(c.Request.Context(), c.GetHeader(RequestIDHeader), operation)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Header(RequestIDHeader, span.TraceID)
		c.Request.Header.Set(RequestIDHeader, span.TraceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.SetTag("http.status_code", fmt.Sprintf("%d", c.Writer.Status()))
		var spanErr error
		if len(c.Errors) > 0 {
			spanErr = fmt.Errorf("request errors: %v", c.Errors.Errors())
		}
		tracer.EndSpan(span, spanErr)
	}
}

// TraceFunction runs fn inside a child span of ctx.
func TraceFunction(ctx context.Context, tracer *Tracer, operation string, fn func(context.Context) error) error {
	span, spanCtx := tracer.StartSpan(ctx, operation)

	defer func() {
		if r := recover(); r != nil {
			span.SetTag("panic", "true")
			tracer.EndSpan(span, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	err := fn(spanCtx)
	tracer.EndSpan(span, err)
	return err
}
