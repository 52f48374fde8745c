package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Object classes of the two record kinds held in the registry.
const (
	MHSObjectClass = "nhsMhs"
	ASObjectClass  = "nhsAs"
)

// Attribute names used in queries and mapping. Lookups on Record are
// case-insensitive, so the casing here only matters on the wire.
const (
	AttrObjectClass          = "objectClass"
	AttrIDCode               = "nhsIDCode"
	AttrMHSSvcIA             = "nhsMhsSvcIA"
	AttrMHSPartyKey          = "nhsMHSPartyKey"
	AttrMHSEndPoint          = "nhsMHSEndPoint"
	AttrMHSCPAID             = "nhsMhsCPAId"
	AttrMHSFQDN              = "nhsMhsFQDN"
	AttrMHSIN                = "nhsMHsIN"
	AttrMHSSN                = "nhsMHsSN"
	AttrUniqueIdentifier     = "uniqueIdentifier"
	AttrAckRequested         = "nhsMHSAckRequested"
	AttrDuplicateElimination = "nhsMHSDuplicateElimination"
	AttrPersistDuration      = "nhsMHSPersistDuration"
	AttrRetries              = "nhsMHSRetries"
	AttrRetryInterval        = "nhsMHSRetryInterval"
	AttrSyncReplyMode        = "nhsMHSSyncReplyMode"
	AttrMHSActor             = "nhsMhsActor"
	AttrASClient             = "nhsAsClient"
	AttrASSvcIA              = "nhsAsSvcIA"
	AttrManufacturerOrg      = "nhsMhsManufacturerOrg"
)

// MHSAttributes is the attribute list requested for messaging handling
// service records.
var MHSAttributes = []string{
	AttrIDCode, AttrMHSCPAID, AttrMHSEndPoint, AttrMHSFQDN,
	AttrMHSIN, AttrMHSPartyKey, AttrMHSSN, AttrMHSSvcIA,
	AttrUniqueIdentifier, AttrAckRequested, AttrDuplicateElimination,
	AttrPersistDuration, AttrRetries, AttrRetryInterval, AttrSyncReplyMode,
	AttrMHSActor,
}

// ASAttributes is the attribute list requested for accredited system records.
var ASAttributes = []string{
	AttrUniqueIdentifier, AttrIDCode, AttrASClient, AttrMHSPartyKey, AttrASSvcIA, AttrManufacturerOrg,
}

// QueryPart is one attribute=value constraint. An empty Value means the
// constraint was not supplied and is dropped when the filter is built.
type QueryPart struct {
	Attribute string
	Value     string
}

// Query is an ordered list of constraints combined with logical AND.
type Query []QueryPart

// Without returns a copy of q with every part for attribute removed.
func (q Query) Without(attribute string) Query {
	out := make(Query, 0, len(q))
	for _, p := range q {
		if !strings.EqualFold(p.Attribute, attribute) {
			out = append(out, p)
		}
	}
	return out
}

// Present returns the parts that carry a value, in order.
func (q Query) Present() Query {
	out := make(Query, 0, len(q))
	for _, p := range q {
		if p.Value != "" {
			out = append(out, p)
		}
	}
	return out
}

// Filter renders q as an LDAP filter. Parts without a value are dropped, the
// rest become (attr=value) and are wrapped in a single (&...) group. A query
// with nothing left renders as "(&)", the absolute true filter.
func (q Query) Filter() string {
	var b strings.Builder
	b.WriteString("(&")
	for _, p := range q.Present() {
		b.WriteByte('(')
		b.WriteString(p.Attribute)
		b.WriteByte('=')
		b.WriteString(ldap.EscapeFilter(p.Value))
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String()
}
