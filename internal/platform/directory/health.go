package directory

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const healthTimeout = 5 * time.Second

// HealthStatus is the body of both health check endpoints.
type HealthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Healthy reports whether the check passed.
func (s HealthStatus) Healthy() bool {
	return s.Status == "pass"
}

// Check pings the directory and reports pass or fail.
func Check(ctx context.Context, hc HealthChecker) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := hc.Ping(ctx); err != nil {
		return HealthStatus{Status: "fail", Error: err.Error()}
	}
	return HealthStatus{Status: "pass"}
}

// HealthHandler answers the shallow check: the process is up.
func HealthHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthStatus{Status: "pass"})
	}
}

// DeepHealthHandler answers with the result of a directory lookup, 503 when
// it fails.
func DeepHealthHandler(hc HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := Check(c.Request().Context(), hc)
		if !status.Healthy() {
			zerolog.Ctx(c.Request().Context()).Warn().Str("error", status.Error).Msg("deep health check failed")
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		return c.JSON(http.StatusOK, status)
	}
}
