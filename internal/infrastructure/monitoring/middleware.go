package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Process request
		c.Next()

		// Route template keeps label cardinality bounded; unmatched
		// routes fall back to the raw path.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPRequest(method, path, status, duration)
	}
}

// Timer measures the duration of a single upstream operation.
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer.
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
	}
}

// Stop stops the timer and records the duration.
func (t *Timer) Stop() {
	if t.metrics == nil {
		return
	}
	t.metrics.ObserveUpstreamDuration(time.Since(t.start))
}
