package cache

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponsePrefix prefixes every key written by Middleware.
const ResponsePrefix = "response:"

// Metrics receives hit and miss notifications from Middleware.
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// ResponseKey is the cache key for a request URI. Invalidate(ResponseKey(p))
// drops every cached response whose URI starts with p.
func ResponseKey(uri string) string {
	return ResponsePrefix + uri
}

// Middleware caches successful GET response bodies in c keyed by request
// URI. Other methods pass through untouched.
func Middleware(c *Cache[[]byte], metrics Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := ResponseKey(ctx.Request.URL.RequestURI())

		if body, found := c.Get(key); found {
			slog.Debug("Cache hit", "key", key)
			metrics.IncrementCacheHit()
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", key)
		metrics.IncrementCacheMiss()
		ctx.Header("X-Cache", "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if wrapper.Status() == http.StatusOK && len(ctx.Errors) == 0 && wrapper.body.Len() > 0 {
			c.Set(key, wrapper.body.Bytes())
		}
	}
}

// responseWriter tees the body into a buffer.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
