package accredited

import (
	"fmt"

	"github.com/sds/sds/internal/platform/directory"
	"github.com/sds/sds/internal/platform/fhir"
)

// AccreditedSystem is an accredited system record from the directory. List
// fields hold multi-valued attributes as returned; the rest are scalars.
type AccreditedSystem struct {
	UniqueIdentifiers   []string
	OrgCode             string
	PartyKey            string
	ManufacturerOrg     string
	ServiceInteractions []string
	Clients             []string
}

// FromRecord resolves the attributes the Device mapping needs. A scalar
// attribute with more than one value fails the mapping.
func FromRecord(r directory.Record) (*AccreditedSystem, error) {
	var err error
	single := func(name string) string {
		v, serr := r.Single(name)
		if serr != nil && err == nil {
			err = serr
		}
		return v
	}
	a := &AccreditedSystem{
		UniqueIdentifiers:   r.Values(directory.AttrUniqueIdentifier),
		OrgCode:             single(directory.AttrIDCode),
		PartyKey:            single(directory.AttrMHSPartyKey),
		ManufacturerOrg:     single(directory.AttrManufacturerOrg),
		ServiceInteractions: r.Values(directory.AttrASSvcIA),
		Clients:             r.Values(directory.AttrASClient),
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ToFHIR maps the record to a Device. More than one unique identifier or
// client organisation is a data error and fails the mapping.
func (a *AccreditedSystem) ToFHIR() (*fhir.Device, error) {
	if len(a.UniqueIdentifiers) > 1 {
		return nil, fmt.Errorf("LDAP returned more than 1 '%s' attribute", directory.AttrUniqueIdentifier)
	}
	if len(a.Clients) > 1 {
		return nil, fmt.Errorf("LDAP returned more than 1 '%s' attribute", directory.AttrASClient)
	}

	d := &fhir.Device{
		ResourceType: "Device",
		ID:           fhir.NewID(),
	}

	d.Identifier = fhir.AppendIdentifier(d.Identifier, fhir.SpineASIDSystem, first(a.UniqueIdentifiers))
	d.Identifier = fhir.AppendIdentifier(d.Identifier, fhir.PartyKeySystem, a.PartyKey)

	d.Extension = fhir.AppendReferenceExtension(d.Extension,
		fhir.ManufacturingOrganisationURL, fhir.ODSOrganizationCodeSystem, a.ManufacturerOrg)
	for _, svc := range a.ServiceInteractions {
		d.Extension = fhir.AppendReferenceExtension(d.Extension,
			fhir.ServiceInteractionIDURL, fhir.ServiceInteractionSystem, svc)
	}

	d.Owner = fhir.IdentifierReference(fhir.ODSOrganizationCodeSystem, first(a.Clients))
	return d, nil
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}
