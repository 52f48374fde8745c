package fhir

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Response media types.
const (
	FHIRContentType = "application/fhir+json"
	JSONContentType = "application/json"
)

// NegotiateAccept picks the response media type for an Accept header. The
// header is split on commas and each entry trimmed, lower-cased and
// stripped of parameters. "*/*" or application/fhir+json anywhere selects
// FHIR JSON; failing that application/json selects plain JSON. A missing
// header selects FHIR JSON. ok is false when nothing acceptable is offered.
func NegotiateAccept(accept string) (string, bool) {
	if strings.TrimSpace(accept) == "" {
		return FHIRContentType, true
	}

	var plainJSON bool
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch mediaType {
		case "*/*", FHIRContentType:
			return FHIRContentType, true
		case JSONContentType:
			plainJSON = true
		}
	}
	if plainJSON {
		return JSONContentType, true
	}
	return "", false
}

// AcceptType negotiates the request's Accept header, failing with 406.
func AcceptType(c echo.Context) (string, error) {
	mt, ok := NegotiateAccept(c.Request().Header.Get(echo.HeaderAccept))
	if !ok {
		return "", echo.NewHTTPError(http.StatusNotAcceptable, "Accept type not supported")
	}
	return mt, nil
}
