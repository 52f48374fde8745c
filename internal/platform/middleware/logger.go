package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const handledErrorKey = "handled_error"

// handleError renders err through the echo error handler and keeps it on the
// context for middleware further out, which then sees a nil error.
func handleError(c echo.Context, err error) {
	c.Set(handledErrorKey, err)
	c.Error(err)
}

// Logger writes one access log line per request. Errors are handed to the
// echo error handler first so the logged status is the one sent.
func Logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)
			if err != nil {
				handleError(c, err)
			} else if handled, ok := c.Get(handledErrorKey).(error); ok {
				err = handled
			}

			log := zerolog.Ctx(c.Request().Context())
			evt := log.Info()
			if c.Response().Status >= 500 {
				evt = log.Error().Err(err)
			}

			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return nil
		}
	}
}
