package fhir

import (
	"encoding/json"
	"testing"
)

func TestAppendHelpers_OmitEmpty(t *testing.T) {
	var ids []Identifier
	ids = AppendIdentifier(ids, MHSFQDNSystem, "")
	if ids != nil {
		t.Errorf("expected no identifiers, got %+v", ids)
	}

	var exts []Extension
	exts = AppendStringExtension(exts, "nhsMHSSyncReplyMode", "")
	exts = AppendReferenceExtension(exts, ServiceInteractionIDURL, ServiceInteractionSystem, "")
	exts, err := AppendIntegerExtension(exts, "nhsMHSRetries", "")
	if err != nil {
		t.Fatal(err)
	}
	if exts != nil {
		t.Errorf("expected no extensions, got %+v", exts)
	}
	if IdentifierReference(ODSOrganizationCodeSystem, "") != nil {
		t.Error("expected nil reference for empty value")
	}
}

func TestAppendIntegerExtension(t *testing.T) {
	exts, err := AppendIntegerExtension(nil, "nhsMHSRetries", "0")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(exts[0])
	if string(raw) != `{"url":"nhsMHSRetries","valueInteger":0}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	if _, err := AppendIntegerExtension(nil, "nhsMHSRetries", "two"); err == nil {
		t.Error("expected error for non-integer value")
	}
}

func TestAppendReferenceExtension(t *testing.T) {
	exts := AppendReferenceExtension(nil, ServiceInteractionIDURL, ServiceInteractionSystem, "urn:nhs:names:services:psis:REPC_IN150016UK05")
	raw, _ := json.Marshal(exts)
	want := `[{"url":"` + ServiceInteractionIDURL + `","valueReference":{"identifier":{"system":"` +
		ServiceInteractionSystem + `","value":"urn:nhs:names:services:psis:REPC_IN150016UK05"}}}]`
	if string(raw) != want {
		t.Errorf("got %s\nwant %s", raw, want)
	}
}
