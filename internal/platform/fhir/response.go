package fhir

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/labstack/echo/v4"
)

// Write encodes v as indented JSON with the negotiated media type. Nothing
// is written once the request context is done.
func Write(c echo.Context, status int, contentType string, v any) error {
	if err := c.Request().Context().Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return c.Blob(status, contentType, b)
}

// BaseURL is the request's scheme, host and path followed by "/", the
// prefix of every entry fullUrl.
func BaseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + c.Request().URL.Path + "/"
}

// SelfURL is the full request URL with percent-escapes decoded.
func SelfURL(c echo.Context) string {
	full := c.Scheme() + "://" + c.Request().Host + c.Request().URL.RequestURI()
	if decoded, err := url.PathUnescape(full); err == nil {
		return decoded
	}
	return full
}
