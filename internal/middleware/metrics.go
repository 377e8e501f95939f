package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/telemetry"
)

// MetricsMiddleware records a counter and a latency histogram for every
// request. The path label uses the matched route template
// (/api/v1/vault/passwords/:id, not the concrete URL) so credential IDs never
// become label values; requests matching no route are collapsed into a single
// "unmatched" label to keep cardinality bounded.
//
// Registered after gin.Recovery so a recovered panic still reports its 500.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
