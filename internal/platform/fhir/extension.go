package fhir

import (
	"fmt"
	"strconv"
	"strings"
)

// AppendIdentifier appends system|value to ids unless value is empty.
func AppendIdentifier(ids []Identifier, system, value string) []Identifier {
	if value == "" {
		return ids
	}
	return append(ids, Identifier{System: system, Value: value})
}

// IdentifierReference returns a reference by identifier, or nil when value
// is empty.
func IdentifierReference(system, value string) *Reference {
	if value == "" {
		return nil
	}
	return &Reference{Identifier: &Identifier{System: system, Value: value}}
}

// AppendStringExtension appends a valueString extension unless value is empty.
func AppendStringExtension(exts []Extension, url, value string) []Extension {
	if value == "" {
		return exts
	}
	return append(exts, Extension{URL: url, ValueString: value})
}

// AppendIntegerExtension appends a valueInteger extension unless value is
// empty. A value that is not an integer is an error.
func AppendIntegerExtension(exts []Extension, url, value string) ([]Extension, error) {
	if value == "" {
		return exts, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return exts, fmt.Errorf("invalid integer value for '%s': %q", url, value)
	}
	return append(exts, Extension{URL: url, ValueInteger: &n}), nil
}

// AppendReferenceExtension appends a valueReference extension identifying
// system|value unless value is empty.
func AppendReferenceExtension(exts []Extension, url, system, value string) []Extension {
	if value == "" {
		return exts
	}
	return append(exts, Extension{URL: url, ValueReference: IdentifierReference(system, value)})
}
