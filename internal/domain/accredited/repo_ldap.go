package accredited

import (
	"context"
	"fmt"

	"github.com/sds/sds/internal/platform/directory"
)

type accreditedSystemRepoLDAP struct {
	dir                directory.Searcher
	ignoreManufacturer bool
}

// NewAccreditedSystemRepoLDAP searches dir for nhsAs records. With
// ignoreManufacturer set the manufacturing organisation is never part of
// the filter.
func NewAccreditedSystemRepoLDAP(dir directory.Searcher, ignoreManufacturer bool) AccreditedSystemRepository {
	return &accreditedSystemRepoLDAP{dir: dir, ignoreManufacturer: ignoreManufacturer}
}

func (r *accreditedSystemRepoLDAP) query(c Criteria) directory.Query {
	q := directory.Query{
		{Attribute: directory.AttrIDCode, Value: c.OrgCode},
		{Attribute: directory.AttrObjectClass, Value: directory.ASObjectClass},
		{Attribute: directory.AttrASSvcIA, Value: c.ServiceID},
		{Attribute: directory.AttrManufacturerOrg, Value: c.ManufacturingOrg},
		{Attribute: directory.AttrMHSPartyKey, Value: c.PartyKey},
	}
	if r.ignoreManufacturer {
		q = q.Without(directory.AttrManufacturerOrg)
	}
	return q
}

func (r *accreditedSystemRepoLDAP) Search(ctx context.Context, c Criteria) ([]*AccreditedSystem, error) {
	records, err := r.dir.Search(ctx, r.query(c), directory.ASAttributes)
	if err != nil {
		return nil, err
	}
	out := make([]*AccreditedSystem, 0, len(records))
	for _, rec := range records {
		a, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("read accredited system: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}
