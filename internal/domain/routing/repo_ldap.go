package routing

import (
	"context"
	"fmt"

	"github.com/sds/sds/internal/platform/directory"
)

type mhsRepoLDAP struct {
	dir directory.Searcher
}

func NewMessageHandlingServiceRepoLDAP(dir directory.Searcher) MessageHandlingServiceRepository {
	return &mhsRepoLDAP{dir: dir}
}

func query(c Criteria) directory.Query {
	return directory.Query{
		{Attribute: directory.AttrIDCode, Value: c.OrgCode},
		{Attribute: directory.AttrObjectClass, Value: directory.MHSObjectClass},
		{Attribute: directory.AttrMHSSvcIA, Value: c.ServiceID},
		{Attribute: directory.AttrMHSPartyKey, Value: c.PartyKey},
	}
}

func (r *mhsRepoLDAP) Find(ctx context.Context, c Criteria) ([]*MessageHandlingService, error) {
	records, err := r.dir.Search(ctx, query(c), directory.MHSAttributes)
	if err != nil {
		return nil, err
	}
	return fromRecords(records)
}

func (r *mhsRepoLDAP) FindStrict(ctx context.Context, c Criteria) ([]*MessageHandlingService, error) {
	records, err := r.dir.SearchStrict(ctx, query(c), directory.MHSAttributes)
	if err != nil {
		return nil, err
	}
	return fromRecords(records)
}

func fromRecords(records []directory.Record) ([]*MessageHandlingService, error) {
	out := make([]*MessageHandlingService, 0, len(records))
	for _, rec := range records {
		m, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("read messaging handling service: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
