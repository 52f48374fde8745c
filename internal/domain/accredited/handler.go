package accredited

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sds/sds/internal/platform/fhir"
	"github.com/sds/sds/internal/platform/middleware"
)

const (
	paramOrganization              = "organization"
	paramIdentifier                = "identifier"
	paramManufacturingOrganization = "manufacturing-organization"
)

var deviceParams = []fhir.TokenParam{
	{Name: paramOrganization, Systems: []string{fhir.ODSOrganizationCodeSystem}},
	{Name: paramIdentifier, Systems: []string{fhir.ServiceInteractionSystem, fhir.PartyKeySystem}},
	{Name: paramManufacturingOrganization, Systems: []string{fhir.ODSOrganizationCodeSystem}},
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Any("/Device", h.SearchDevicesFHIR, middleware.GETOnly(), middleware.RequireCorrelationID())
}

func (h *Handler) SearchDevicesFHIR(c echo.Context) error {
	q, err := fhir.ParseTokenQuery(c.QueryParams(), deviceParams...)
	if err != nil {
		return err
	}
	org, err := q.Required(paramOrganization, fhir.ODSOrganizationCodeSystem)
	if err != nil {
		return err
	}
	svc, err := q.Required(paramIdentifier, fhir.ServiceInteractionSystem)
	if err != nil {
		return err
	}
	criteria := Criteria{
		OrgCode:          org,
		ServiceID:        svc,
		ManufacturingOrg: q.Optional(paramManufacturingOrganization, fhir.ODSOrganizationCodeSystem),
		PartyKey:         q.Optional(paramIdentifier, fhir.PartyKeySystem),
	}

	accept, err := fhir.AcceptType(c)
	if err != nil {
		return err
	}

	devices, err := h.svc.SearchDevices(c.Request().Context(), criteria)
	if err != nil {
		return err
	}

	bundle := fhir.NewSearchBundle(devices, fhir.BaseURL(c), fhir.SelfURL(c))
	return fhir.Write(c, http.StatusOK, accept, bundle)
}
