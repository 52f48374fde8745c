package fhir

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenParam declares a query parameter whose values take the form
// system|value, and the systems it accepts.
type TokenParam struct {
	Name    string
	Systems []string
}

// TokenQuery holds query parameters that passed validation.
type TokenQuery struct {
	values url.Values
	params map[string]TokenParam
}

// ParseTokenQuery validates values against the allowed parameters. Any
// unknown parameter name, or any value not prefixed by one of its
// parameter's systems, is a 400.
func ParseTokenQuery(values url.Values, allowed ...TokenParam) (*TokenQuery, error) {
	params := make(map[string]TokenParam, len(allowed))
	for _, p := range allowed {
		params[p.Name] = p
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, ok := params[name]
		if !ok {
			return nil, badRequest("Illegal query parameter '%s'", name)
		}
		for _, v := range values[name] {
			if !hasAnyPrefix(v, p.Systems) {
				return nil, invalidParam(p)
			}
		}
	}
	return &TokenQuery{values: values, params: params}, nil
}

// Required returns the value of the last name=system|value parameter. A
// missing parameter or a blank value is a 400.
func (q *TokenQuery) Required(name, system string) (string, error) {
	v := q.Optional(name, system)
	if v == "" {
		return "", invalidParam(TokenParam{Name: name, Systems: []string{system}})
	}
	return v, nil
}

// Optional is Required without the failure: "" means absent.
func (q *TokenQuery) Optional(name, system string) string {
	prefix := system + "|"
	var found string
	for _, v := range q.values[name] {
		if strings.HasPrefix(v, prefix) {
			found = strings.TrimPrefix(v, prefix)
		}
	}
	if strings.TrimSpace(found) == "" {
		return ""
	}
	return found
}

func hasAnyPrefix(v string, systems []string) bool {
	for _, s := range systems {
		if strings.HasPrefix(v, s+"|") {
			return true
		}
	}
	return false
}

func invalidParam(p TokenParam) error {
	if len(p.Systems) == 1 {
		return badRequest("Missing or invalid '%s' query parameter. Should be '%s=%s|value'", p.Name, p.Name, p.Systems[0])
	}
	forms := make([]string, len(p.Systems))
	for i, s := range p.Systems {
		forms[i] = fmt.Sprintf("'%s=%s|value'", p.Name, s)
	}
	return badRequest("Missing or invalid '%s' query parameter. Should be one or both of: [%s]", p.Name, strings.Join(forms, ", "))
}

func badRequest(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}
