package routing

import (
	"context"
)

// Criteria selects messaging handling service records. Empty fields are not
// constrained.
type Criteria struct {
	OrgCode   string
	ServiceID string
	PartyKey  string
}

type MessageHandlingServiceRepository interface {
	// Find treats a directory timeout as no records.
	Find(ctx context.Context, c Criteria) ([]*MessageHandlingService, error)
	// FindStrict fails on a directory timeout.
	FindStrict(ctx context.Context, c Criteria) ([]*MessageHandlingService, error)
}
