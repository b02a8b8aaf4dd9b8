// README: Prometheus request metrics keyed by the gin route template.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder is implemented by *observability.Recorder.
type HTTPRecorder interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
	InFlight(delta float64)
}

func Metrics(rec HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec.InFlight(1)
		start := time.Now()
		c.Next()
		rec.InFlight(-1)

		// FullPath keeps label cardinality bounded; unmatched routes share one label.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
