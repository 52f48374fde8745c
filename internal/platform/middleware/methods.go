package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GETOnly rejects every method but GET with 405. Routes registered with
// e.Any and this middleware answer OPTIONS and HEAD with 405 as well,
// which the router's own method handling would not.
func GETOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return echo.NewHTTPError(http.StatusMethodNotAllowed)
			}
			return next(c)
		}
	}
}
