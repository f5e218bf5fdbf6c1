package middleware

import (
	"time"

	"vendor-invoicing/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Instrument counts every served request by matched route. Unmatched paths
// share one label so scanners cannot blow up label cardinality.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(route, c.Request.Method, c.Writer.Status(), start)
	}
}
