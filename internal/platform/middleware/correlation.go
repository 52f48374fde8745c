package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// CorrelationIDHeader carries the caller's tracking id in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

const (
	correlationIDKey      = "correlation_id"
	correlationInvalidKey = "correlation_id_invalid"
)

const uuidV4Pattern = `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`

var uuidV4 = regexp.MustCompile(uuidV4Pattern)

// NewCorrelationID returns a fresh upper-case UUIDv4.
func NewCorrelationID() string {
	return strings.ToUpper(uuid.NewString())
}

// ValidCorrelationID reports whether id is shaped like a UUIDv4.
func ValidCorrelationID(id string) bool {
	return uuidV4.MatchString(id)
}

// CorrelationID assigns every request a correlation id: the caller's when
// it is a UUIDv4, otherwise a generated one. The id is echoed on the
// response and attached to a request-scoped logger in the request context.
// An invalid caller id is only recorded here; RequireCorrelationID rejects
// it on the resource routes.
func CorrelationID(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(CorrelationIDHeader)
			if id != "" && !ValidCorrelationID(id) {
				c.Set(correlationInvalidKey, id)
				id = ""
			}
			if id == "" {
				id = NewCorrelationID()
			}

			c.Set(correlationIDKey, id)
			c.Response().Header().Set(CorrelationIDHeader, id)

			l := logger.With().Str("correlation_id", id).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))
			return next(c)
		}
	}
}

// RequireCorrelationID rejects requests whose X-Correlation-ID header was
// present but not a UUIDv4.
func RequireCorrelationID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if bad, ok := c.Get(correlationInvalidKey).(string); ok {
				zerolog.Ctx(c.Request().Context()).Info().Str("header", bad).Msg("rejected invalid correlation id")
				return echo.NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("Invalid %s header. Should be an UUIDv4 matching regex '%s'", CorrelationIDHeader, uuidV4Pattern))
			}
			return next(c)
		}
	}
}

// CorrelationIDFrom returns the id assigned to c. When none was assigned
// one is generated, stored and echoed on the response.
func CorrelationIDFrom(c echo.Context) string {
	if id, ok := c.Get(correlationIDKey).(string); ok && ValidCorrelationID(id) {
		return id
	}
	id := NewCorrelationID()
	c.Set(correlationIDKey, id)
	c.Response().Header().Set(CorrelationIDHeader, id)
	return id
}
