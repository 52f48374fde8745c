package routing

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sds/sds/internal/platform/fhir"
	"github.com/sds/sds/internal/platform/middleware"
)

const (
	paramOrganization = "organization"
	paramIdentifier   = "identifier"
)

var endpointParams = []fhir.TokenParam{
	{Name: paramOrganization, Systems: []string{fhir.ODSOrganizationCodeSystem}},
	{Name: paramIdentifier, Systems: []string{fhir.ServiceInteractionSystem, fhir.PartyKeySystem}},
}

var invalidCombinationMessage = func() string {
	org := fmt.Sprintf("%s=%s|value", paramOrganization, fhir.ODSOrganizationCodeSystem)
	svc := fmt.Sprintf("%s=%s|value", paramIdentifier, fhir.ServiceInteractionSystem)
	pk := fmt.Sprintf("%s=%s|value", paramIdentifier, fhir.PartyKeySystem)
	return fmt.Sprintf("Missing or invalid query parameters. Should be one of following combinations: ['%s&%s&%s', '%s&%s', '%s&%s', '%s&%s']",
		org, svc, pk, org, svc, org, pk, svc, pk)
}()

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Any("/Endpoint", h.SearchEndpointsFHIR, middleware.GETOnly(), middleware.RequireCorrelationID())
}

// validCombination accepts org with service id or party key, or service id
// together with party key.
func validCombination(c Criteria) bool {
	hasOrg, hasSvc, hasPK := c.OrgCode != "", c.ServiceID != "", c.PartyKey != ""
	if hasOrg {
		return hasSvc || hasPK
	}
	return hasSvc && hasPK
}

func (h *Handler) SearchEndpointsFHIR(c echo.Context) error {
	q, err := fhir.ParseTokenQuery(c.QueryParams(), endpointParams...)
	if err != nil {
		return err
	}
	criteria := Criteria{
		OrgCode:   q.Optional(paramOrganization, fhir.ODSOrganizationCodeSystem),
		ServiceID: q.Optional(paramIdentifier, fhir.ServiceInteractionSystem),
		PartyKey:  q.Optional(paramIdentifier, fhir.PartyKeySystem),
	}
	if !validCombination(criteria) {
		return echo.NewHTTPError(http.StatusBadRequest, invalidCombinationMessage)
	}

	accept, err := fhir.AcceptType(c)
	if err != nil {
		return err
	}

	endpoints, err := h.svc.SearchEndpoints(c.Request().Context(), criteria)
	if err != nil {
		return err
	}

	bundle := fhir.NewSearchBundle(endpoints, fhir.BaseURL(c), fhir.SelfURL(c))
	return fhir.Write(c, http.StatusOK, accept, bundle)
}
