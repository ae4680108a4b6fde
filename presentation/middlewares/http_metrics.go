package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nemaks/recordstore/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// HTTPMetrics records request counts and latency per matched route.
func HTTPMetrics(m metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := []attribute.KeyValue{
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		}
		ctx := c.Request.Context()
		m.IncrementCounter(ctx, metrics.HTTPRequestsTotal, labels...)
		m.RecordHistogram(ctx, metrics.HTTPRequestDuration, time.Since(start).Seconds(), labels...)
	}
}
