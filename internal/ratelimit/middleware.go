package ratelimit

import (
	"math"
	"strconv"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware rejects clients that exhausted their bucket with 429.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := rl.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retry := int(math.Ceil(result.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retry))

			appErr := apperrors.NewRateLimitError(strconv.Itoa(retry) + "s")
			apperrors.LogError(c, appErr)
			body := appErr.Response()
			body["retry_after"] = retry
			c.AbortWithStatusJSON(appErr.HTTPStatus, body)
			return
		}

		c.Next()
	}
}
