package fhir

import "net/http"

// OperationOutcome severity levels (FHIR R4 IssueSeverity).
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes used by the gateway.
const (
	IssueTypeRequired     = "required"
	IssueTypeNotFound     = "not-found"
	IssueTypeNotSupported = "not-supported"
	IssueTypeException    = "exception"
	IssueTypeTimeout      = "timeout"
)

// SpineErrorSystem is the code system of the Spine error codings.
const SpineErrorSystem = "https://fhir.nhs.uk/STU3/ValueSet/Spine-ErrorOrWarningCode-1"

var (
	CodingBadRequest          = Coding{System: SpineErrorSystem, Code: "BAD_REQUEST", Display: "Bad request"}
	CodingNoRecordFound       = Coding{System: SpineErrorSystem, Code: "NO_RECORD_FOUND", Display: "No record found"}
	CodingNotImplemented      = Coding{System: SpineErrorSystem, Code: "NOT_IMPLEMENTED", Display: "Not implemented"}
	CodingInvalidHeader       = Coding{System: SpineErrorSystem, Code: "MISSING_OR_INVALID_HEADER", Display: "There is a required header missing or invalid"}
	CodingInternalServerError = Coding{System: SpineErrorSystem, Code: "INTERNAL_SERVER_ERROR", Display: "Unexpected internal server error"}
)

// OperationOutcome represents a FHIR OperationOutcome for errors.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	ID           string                  `json:"id,omitempty"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string          `json:"severity"`
	Code        string          `json:"code"`
	Details     CodeableConcept `json:"details"`
	Diagnostics string          `json:"diagnostics,omitempty"`
}

// issueTemplate is the fixed part of the issue rendered for a status. An
// empty diagnostics means the error message is used.
type issueTemplate struct {
	code        string
	coding      Coding
	diagnostics string
}

var outcomeTemplates = map[int]issueTemplate{
	http.StatusBadRequest:          {code: IssueTypeRequired, coding: CodingBadRequest},
	http.StatusNotFound:            {code: IssueTypeNotFound, coding: CodingNoRecordFound, diagnostics: "HTTP endpoint not found"},
	http.StatusMethodNotAllowed:    {code: IssueTypeNotSupported, coding: CodingNotImplemented, diagnostics: "HTTP operation not supported"},
	http.StatusNotAcceptable:       {code: IssueTypeNotSupported, coding: CodingInvalidHeader, diagnostics: "Accept type not supported"},
	http.StatusInternalServerError: {code: IssueTypeException, coding: CodingInternalServerError},
	http.StatusBadGateway:          {code: IssueTypeException, coding: CodingInternalServerError, diagnostics: "Invalid LDAP response received"},
	http.StatusGatewayTimeout:      {code: IssueTypeTimeout, coding: CodingInternalServerError, diagnostics: "LDAP request timed out"},
}

var (
	clientErrorTemplate = issueTemplate{code: IssueTypeException, coding: CodingBadRequest}
	serverErrorTemplate = issueTemplate{code: IssueTypeException, coding: CodingInternalServerError}
)

func templateFor(status int) issueTemplate {
	if t, ok := outcomeTemplates[status]; ok {
		return t
	}
	if status >= 400 && status < 500 {
		return clientErrorTemplate
	}
	return serverErrorTemplate
}

// OutcomeForStatus builds the single-issue OperationOutcome for an error
// response with the given status. message is used as diagnostics for
// statuses whose diagnostics are not fixed; id is the correlation id.
func OutcomeForStatus(status int, message, id string) *OperationOutcome {
	t := templateFor(status)
	diagnostics := t.diagnostics
	if diagnostics == "" {
		diagnostics = message
	}
	if diagnostics == "" {
		diagnostics = http.StatusText(status)
	}
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		ID:           id,
		Issue: []OperationOutcomeIssue{
			{
				Severity:    IssueSeverityError,
				Code:        t.code,
				Details:     CodeableConcept{Coding: []Coding{t.coding}},
				Diagnostics: diagnostics,
			},
		},
	}
}
