package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sds/sds/internal/platform/metrics"
)

// Metrics observes request latency by matched route and final status.
// Unmatched paths are grouped under "unmatched" to keep label cardinality
// bounded.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				handleError(c, err)
			}

			route := c.Path()
			if route == "" || route == "/*" {
				route = "unmatched"
			}
			m.ObserveRequest(route, strconv.Itoa(c.Response().Status), time.Since(start))
			return nil
		}
	}
}
