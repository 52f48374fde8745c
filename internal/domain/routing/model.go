package routing

import (
	"fmt"
	"strings"

	"github.com/sds/sds/internal/platform/directory"
	"github.com/sds/sds/internal/platform/fhir"
)

// Services whose forward interactions are routed through a core intermediary.
var reliableServices = setOf(
	"cc", "ebs", "ebsepr", "ebsnpr", "gp2gp", "pat", "itk", "dis",
	"ed", "op", "caf", "adm", "ooh", "am", "mh", "nd", "dir",
)

var forwardReliableInteractions = setOf(
	"COPC_IN000001UK01", "PRSC_IN040000UK08", "PRSC_IN080000UK07", "PRPA_IN010000UK07", "PRPA_IN020000UK06",
	"PRSC_IN050000UK06", "PRSC_IN090000UK09", "PRPA_IN030000UK08", "PRSC_IN100000UK06", "PRSC_IN070000UK08",
	"PRSC_IN140000UK06", "RCMR_IN010000UK05", "RCMR_IN030000UK06", "PRSC_IN130000UK07", "PRSC_IN110000UK08",
	"PRSC_IN060000UK06", "PRSC_IN150000UK06", "POLB_IN020006UK01", "POLB_IN020005UK01", "COMT_IN000004GB01",
	"MCCI_IN010000UK13",
)

var forwardExpressInteractions = setOf(
	"PRSC_IN080000UK03", "PRSC_IN040000UK03",
)

// Service interactions of the core intermediaries.
const (
	ReliableIntermediaryInteraction = "urn:nhs:names:services:tms:ReliableIntermediary"
	ExpressIntermediaryInteraction  = "urn:nhs:names:services:tms:ExpressIntermediary"
)

// Names of the nested reliability configuration extensions.
const (
	extSyncReplyMode        = "nhsMHSSyncReplyMode"
	extRetryInterval        = "nhsMHSRetryInterval"
	extRetries              = "nhsMHSRetries"
	extPersistDuration      = "nhsMHSPersistDuration"
	extDuplicateElimination = "nhsMHSDuplicateElimination"
	extAckRequested         = "nhsMHSAckRequested"
	extActor                = "nhsMHSActor"
)

func setOf(vs ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

func contains(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}

// ForwardKind says which intermediary, if any, a record is routed through.
type ForwardKind int

const (
	ForwardNone ForwardKind = iota
	ForwardReliable
	ForwardExpress
)

func (k ForwardKind) String() string {
	switch k {
	case ForwardReliable:
		return "reliable"
	case ForwardExpress:
		return "express"
	default:
		return "none"
	}
}

// Interaction returns the service interaction of the kind's intermediary.
func (k ForwardKind) Interaction() string {
	switch k {
	case ForwardReliable:
		return ReliableIntermediaryInteraction
	case ForwardExpress:
		return ExpressIntermediaryInteraction
	default:
		return ""
	}
}

// ParseServiceInteraction splits a service interaction id such as
// urn:nhs:names:services:gp2gp:RCMR_IN010000UK05 into its last two
// colon-separated segments.
func ParseServiceInteraction(svcIA string) (service, interaction string, err error) {
	parts := strings.Split(svcIA, ":")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("Invalid service interaction: %s", svcIA)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// ClassifyForward reports which intermediary a service interaction id is
// forwarded through. An empty id is never forwarded.
func ClassifyForward(svcIA string) (ForwardKind, error) {
	if svcIA == "" {
		return ForwardNone, nil
	}
	service, interaction, err := ParseServiceInteraction(svcIA)
	if err != nil {
		return ForwardNone, err
	}
	if !contains(reliableServices, service) {
		return ForwardNone, nil
	}
	switch {
	case contains(forwardReliableInteractions, interaction):
		return ForwardReliable, nil
	case contains(forwardExpressInteractions, interaction):
		return ForwardExpress, nil
	}
	return ForwardNone, nil
}

// MessageHandlingService is a messaging handling service record resolved
// from the directory. Addresses, UniqueIdentifiers and Actors are the
// multi-valued attributes; everything else is scalar.
type MessageHandlingService struct {
	OrgCode              string
	ServiceInteraction   string
	PartyKey             string
	CPAID                string
	FQDN                 string
	Addresses            []string
	UniqueIdentifiers    []string
	AckRequested         string
	DuplicateElimination string
	PersistDuration      string
	Retries              string
	RetryInterval        string
	SyncReplyMode        string
	Actors               []string
}

// FromRecord resolves the attributes the Endpoint mapping needs. A scalar
// attribute with more than one value fails the mapping.
func FromRecord(r directory.Record) (*MessageHandlingService, error) {
	var err error
	single := func(name string) string {
		v, serr := r.Single(name)
		if serr != nil && err == nil {
			err = serr
		}
		return v
	}
	m := &MessageHandlingService{
		OrgCode:              single(directory.AttrIDCode),
		ServiceInteraction:   single(directory.AttrMHSSvcIA),
		PartyKey:             single(directory.AttrMHSPartyKey),
		CPAID:                single(directory.AttrMHSCPAID),
		FQDN:                 single(directory.AttrMHSFQDN),
		Addresses:            r.Values(directory.AttrMHSEndPoint),
		UniqueIdentifiers:    r.Values(directory.AttrUniqueIdentifier),
		AckRequested:         single(directory.AttrAckRequested),
		DuplicateElimination: single(directory.AttrDuplicateElimination),
		PersistDuration:      single(directory.AttrPersistDuration),
		Retries:              single(directory.AttrRetries),
		RetryInterval:        single(directory.AttrRetryInterval),
		SyncReplyMode:        single(directory.AttrSyncReplyMode),
		Actors:               r.Values(directory.AttrMHSActor),
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ToFHIR maps the record to one Endpoint per address, or a single Endpoint
// without an address when the record has none.
func (m *MessageHandlingService) ToFHIR() ([]*fhir.Endpoint, error) {
	if len(m.UniqueIdentifiers) > 1 {
		return nil, fmt.Errorf("LDAP returned more than 1 '%s' attribute", directory.AttrUniqueIdentifier)
	}
	if len(m.Actors) > 1 {
		return nil, fmt.Errorf("LDAP returned more than 1 '%s' attribute", extActor)
	}

	var ids []fhir.Identifier
	ids = fhir.AppendIdentifier(ids, fhir.MHSFQDNSystem, m.FQDN)
	ids = fhir.AppendIdentifier(ids, fhir.PartyKeySystem, m.PartyKey)
	ids = fhir.AppendIdentifier(ids, fhir.MHSCPAIDSystem, m.CPAID)
	ids = fhir.AppendIdentifier(ids, fhir.MHSIDSystem, first(m.UniqueIdentifiers))

	exts, err := m.extensions()
	if err != nil {
		return nil, err
	}

	addresses := m.Addresses
	if len(addresses) == 0 {
		addresses = []string{""}
	}

	out := make([]*fhir.Endpoint, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, &fhir.Endpoint{
			ResourceType: "Endpoint",
			ID:           fhir.NewID(),
			Status:       "active",
			ConnectionType: fhir.Coding{
				System:  fhir.ConnectionTypeSystem,
				Code:    "hl7-fhir-msg",
				Display: "HL7 FHIR Messaging",
			},
			PayloadType: []fhir.CodeableConcept{{
				Coding: []fhir.Coding{{System: fhir.PayloadTypeSystem, Code: "any", Display: "Any"}},
			}},
			Address:              addr,
			ManagingOrganization: fhir.IdentifierReference(fhir.ODSOrganizationCodeSystem, m.OrgCode),
			Identifier:           ids,
			Extension:            exts,
		})
	}
	return out, nil
}

func (m *MessageHandlingService) extensions() ([]fhir.Extension, error) {
	var reliability []fhir.Extension
	reliability = fhir.AppendStringExtension(reliability, extSyncReplyMode, m.SyncReplyMode)
	reliability = fhir.AppendStringExtension(reliability, extRetryInterval, m.RetryInterval)
	reliability, err := fhir.AppendIntegerExtension(reliability, extRetries, m.Retries)
	if err != nil {
		return nil, err
	}
	reliability = fhir.AppendStringExtension(reliability, extPersistDuration, m.PersistDuration)
	reliability = fhir.AppendStringExtension(reliability, extDuplicateElimination, m.DuplicateElimination)
	reliability = fhir.AppendStringExtension(reliability, extAckRequested, m.AckRequested)
	reliability = fhir.AppendStringExtension(reliability, extActor, first(m.Actors))

	var exts []fhir.Extension
	if len(reliability) > 0 {
		exts = append(exts, fhir.Extension{URL: fhir.ReliabilityConfigurationURL, Extension: reliability})
	}
	exts = fhir.AppendReferenceExtension(exts, fhir.ServiceInteractionIDURL, fhir.ServiceInteractionSystem, m.ServiceInteraction)
	return exts, nil
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}
