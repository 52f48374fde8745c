package fhir

// Identifier systems shared by query parameters and mapped resources.
const (
	ODSOrganizationCodeSystem = "https://fhir.nhs.uk/Id/ods-organization-code"
	ServiceInteractionSystem  = "https://fhir.nhs.uk/Id/nhsServiceInteractionId"
	PartyKeySystem            = "https://fhir.nhs.uk/Id/nhsMhsPartyKey"
	SpineASIDSystem           = "https://fhir.nhs.uk/Id/nhsSpineASID"
	MHSFQDNSystem             = "https://fhir.nhs.uk/Id/nhsMhsFQDN"
	MHSCPAIDSystem            = "https://fhir.nhs.uk/Id/nhsMhsCPAId"
	MHSIDSystem               = "https://fhir.nhs.uk/Id/nhsMHSId"
)

// Extension URLs.
const (
	ReliabilityConfigurationURL  = "https://fhir.nhs.uk/StructureDefinition/Extension-SDS-ReliabilityConfiguration"
	ServiceInteractionIDURL      = "https://fhir.nhs.uk/StructureDefinition/Extension-SDS-NhsServiceInteractionId"
	ManufacturingOrganisationURL = "https://fhir.nhs.uk/StructureDefinition/Extension-SDS-ManufacturingOrganisation"
)

// Code systems of the fixed Endpoint codings.
const (
	ConnectionTypeSystem = "https://terminology.hl7.org/CodeSystem/endpoint-connection-type"
	PayloadTypeSystem    = "https://terminology.hl7.org/CodeSystem/endpoint-payload-type"
)
