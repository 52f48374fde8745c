package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sds/sds/internal/platform/directory"
	"github.com/sds/sds/internal/platform/middleware"
)

// ErrorHandler renders every error as an OperationOutcome. The correlation
// id is taken from the request when one was assigned; a missing or invalid
// id is replaced rather than reported so the original error is not masked.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := StatusFor(err)
		id := middleware.CorrelationIDFrom(c)

		log := zerolog.Ctx(c.Request().Context())
		if log.GetLevel() == zerolog.Disabled {
			log = &logger
		}
		if status >= 500 {
			log.Error().Err(err).Int("status", status).Msg("request failed")
		} else {
			log.Info().Int("status", status).Str("reason", message).Msg("request rejected")
		}

		body, merr := json.MarshalIndent(OutcomeForStatus(status, message, id), "", "    ")
		if merr != nil {
			log.Error().Err(merr).Msg("failed to encode OperationOutcome")
			_ = c.NoContent(status)
			return
		}

		if status == http.StatusMethodNotAllowed {
			c.Response().Header().Set(echo.HeaderAllow, http.MethodGet)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		if werr := c.Blob(status, FHIRContentType, body); werr != nil {
			log.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

// StatusFor maps an error to its response status and message. Directory
// failures map to 502 and 504; anything unrecognised is a 500.
func StatusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		var msg string
		switch {
		case he.Message != nil:
			msg = fmt.Sprint(he.Message)
		case he.Internal != nil:
			msg = he.Internal.Error()
		}
		return he.Code, msg
	case errors.Is(err, directory.ErrSearchTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, directory.ErrInvalidResponse):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
