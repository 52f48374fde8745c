package fhir

import (
	"net/http"
	"testing"
)

func TestOutcomeForStatus_Table(t *testing.T) {
	tests := []struct {
		status      int
		message     string
		code        string
		coding      string
		diagnostics string
	}{
		{http.StatusBadRequest, "Illegal query parameter 'x'", "required", "BAD_REQUEST", "Illegal query parameter 'x'"},
		{http.StatusNotFound, "Not Found", "not-found", "NO_RECORD_FOUND", "HTTP endpoint not found"},
		{http.StatusMethodNotAllowed, "Method Not Allowed", "not-supported", "NOT_IMPLEMENTED", "HTTP operation not supported"},
		{http.StatusNotAcceptable, "whatever", "not-supported", "MISSING_OR_INVALID_HEADER", "Accept type not supported"},
		{http.StatusInternalServerError, "some error", "exception", "INTERNAL_SERVER_ERROR", "some error"},
		{http.StatusBadGateway, "ldap down", "exception", "INTERNAL_SERVER_ERROR", "Invalid LDAP response received"},
		{http.StatusGatewayTimeout, "slow", "timeout", "INTERNAL_SERVER_ERROR", "LDAP request timed out"},
		{http.StatusConflict, "conflict", "exception", "BAD_REQUEST", "conflict"},
		{http.StatusServiceUnavailable, "unavailable", "exception", "INTERNAL_SERVER_ERROR", "unavailable"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			oo := OutcomeForStatus(tt.status, tt.message, "C0FFEE00-0000-4000-8000-000000000000")
			if oo.ResourceType != "OperationOutcome" {
				t.Errorf("resourceType = %q", oo.ResourceType)
			}
			if oo.ID != "C0FFEE00-0000-4000-8000-000000000000" {
				t.Errorf("id = %q", oo.ID)
			}
			if len(oo.Issue) != 1 {
				t.Fatalf("expected 1 issue, got %d", len(oo.Issue))
			}
			issue := oo.Issue[0]
			if issue.Severity != IssueSeverityError {
				t.Errorf("severity = %q", issue.Severity)
			}
			if issue.Code != tt.code {
				t.Errorf("code = %q, want %q", issue.Code, tt.code)
			}
			if len(issue.Details.Coding) != 1 {
				t.Fatalf("expected 1 coding, got %d", len(issue.Details.Coding))
			}
			c := issue.Details.Coding[0]
			if c.System != SpineErrorSystem || c.Code != tt.coding {
				t.Errorf("coding = %+v, want %s", c, tt.coding)
			}
			if issue.Diagnostics != tt.diagnostics {
				t.Errorf("diagnostics = %q, want %q", issue.Diagnostics, tt.diagnostics)
			}
		})
	}
}

func TestOutcomeForStatus_EmptyMessageFallsBackToStatusText(t *testing.T) {
	oo := OutcomeForStatus(http.StatusInternalServerError, "", "")
	if oo.Issue[0].Diagnostics != "Internal Server Error" {
		t.Errorf("diagnostics = %q", oo.Issue[0].Diagnostics)
	}
}
