package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// multiValued lists the attributes the registry schema declares as
// multi-valued. Every other attribute is returned as a scalar.
var multiValued = map[string]bool{
	strings.ToLower(AttrMHSEndPoint):      true,
	strings.ToLower(AttrUniqueIdentifier): true,
	strings.ToLower(AttrASSvcIA):          true,
	strings.ToLower(AttrASClient):         true,
	strings.ToLower(AttrMHSActor):         true,
}

// IsMultiValued reports whether attribute is carried as a list.
func IsMultiValued(attribute string) bool {
	return multiValued[strings.ToLower(attribute)]
}

// Attribute holds the values of one directory attribute together with its
// shape. A scalar attribute has at most one value.
type Attribute struct {
	Values []string
	Multi  bool
}

// Scalar builds a single-valued attribute.
func Scalar(v string) Attribute {
	return Attribute{Values: []string{v}}
}

// List builds a multi-valued attribute.
func List(vs ...string) Attribute {
	return Attribute{Values: vs, Multi: true}
}

// First returns the first value, or "" when there is none.
func (a Attribute) First() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

// Record is one directory entry: attribute name to values. Keys are stored
// lower-cased so lookups ignore case, as the directory does.
type Record map[string]Attribute

// NewRecord builds a Record from name/attribute pairs.
func NewRecord(attrs map[string]Attribute) Record {
	r := make(Record, len(attrs))
	for k, v := range attrs {
		r[strings.ToLower(k)] = v
	}
	return r
}

// FromEntry converts a search result entry, tagging each attribute as list or
// scalar according to the schema. Every value is kept: a scalar attribute
// the directory returned more than once is reported by Single.
func FromEntry(e *ldap.Entry) Record {
	r := make(Record, len(e.Attributes))
	for _, a := range e.Attributes {
		r[strings.ToLower(a.Name)] = Attribute{
			Values: append([]string(nil), a.Values...),
			Multi:  IsMultiValued(a.Name),
		}
	}
	return r
}

// Get returns the attribute and whether it was present.
func (r Record) Get(name string) (Attribute, bool) {
	a, ok := r[strings.ToLower(name)]
	return a, ok
}

// Value returns the first value of name, or "".
func (r Record) Value(name string) string {
	a, _ := r.Get(name)
	return a.First()
}

// Values returns a copy of every value of name.
func (r Record) Values(name string) []string {
	a, _ := r.Get(name)
	return append([]string(nil), a.Values...)
}

// Single returns the only value of name. It fails when the directory returned
// more than one value for an attribute the caller treats as single-valued.
func (r Record) Single(name string) (string, error) {
	a, _ := r.Get(name)
	if len(a.Values) > 1 {
		return "", fmt.Errorf("LDAP returned more than 1 '%s' attribute", name)
	}
	return a.First(), nil
}

// Set replaces the values of name, keeping the attribute's shape when known.
func (r Record) Set(name string, a Attribute) {
	r[strings.ToLower(name)] = a
}

// Clone returns a copy that can be modified without touching r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = Attribute{Values: append([]string(nil), v.Values...), Multi: v.Multi}
	}
	return out
}
