package accredited

import "context"

// Criteria selects accredited systems. Empty fields are not constrained.
type Criteria struct {
	OrgCode          string
	ServiceID        string
	ManufacturingOrg string
	PartyKey         string
}

type AccreditedSystemRepository interface {
	Search(ctx context.Context, c Criteria) ([]*AccreditedSystem, error)
}
