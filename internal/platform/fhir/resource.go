package fhir

// Resource is anything that can be placed in a Bundle entry.
type Resource interface {
	ResourceID() string
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Identifier struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

// Reference points at another resource by business identifier.
type Reference struct {
	Identifier *Identifier `json:"identifier,omitempty"`
}

// Extension carries one of valueString, valueInteger or valueReference, or
// nested extensions. ValueInteger is a pointer so that 0 is still emitted.
type Extension struct {
	URL            string      `json:"url"`
	Extension      []Extension `json:"extension,omitempty"`
	ValueString    string      `json:"valueString,omitempty"`
	ValueInteger   *int        `json:"valueInteger,omitempty"`
	ValueReference *Reference  `json:"valueReference,omitempty"`
}

// Endpoint is the subset of the FHIR Endpoint resource produced from a
// messaging handling service record.
type Endpoint struct {
	ResourceType         string            `json:"resourceType"`
	ID                   string            `json:"id"`
	Status               string            `json:"status"`
	ConnectionType       Coding            `json:"connectionType"`
	PayloadType          []CodeableConcept `json:"payloadType"`
	Address              string            `json:"address,omitempty"`
	ManagingOrganization *Reference        `json:"managingOrganization,omitempty"`
	Identifier           []Identifier      `json:"identifier,omitempty"`
	Extension            []Extension       `json:"extension,omitempty"`
}

func (e *Endpoint) ResourceID() string { return e.ID }

// Device is the subset of the FHIR Device resource produced from an
// accredited system record.
type Device struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Extension    []Extension  `json:"extension,omitempty"`
	Owner        *Reference   `json:"owner,omitempty"`
}

func (d *Device) ResourceID() string { return d.ID }
