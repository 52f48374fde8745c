package directory

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"strings"
	"time"
)

// Mock modes.
const (
	ModeStrict = "STRICT" // records matching every query part
	ModeRandom = "RANDOM" // one record picked at random
	ModeFirst  = "FIRST"  // the first record
)

const (
	mhsFixture = "sds_mhs_response.json"
	asFixture  = "sds_as_response.json"
)

//go:embed mockdata/*.json
var mockData embed.FS

// MockDirectory answers searches from JSON fixtures instead of a live
// directory. Each fixture is an array of objects; a string value becomes a
// scalar attribute and an array value a multi-valued one.
type MockDirectory struct {
	mhs   []Record
	as    []Record
	mode  string
	pause time.Duration
}

// NewMockDirectory loads the fixtures from dataDir, or the embedded set when
// dataDir is empty.
func NewMockDirectory(mode string, pause time.Duration, dataDir string) (*MockDirectory, error) {
	mode = strings.ToUpper(mode)
	switch mode {
	case ModeStrict, ModeRandom, ModeFirst:
	case "":
		mode = ModeStrict
	default:
		return nil, fmt.Errorf("unknown mock mode %q", mode)
	}

	var fsys fs.FS
	if dataDir != "" {
		fsys = os.DirFS(dataDir)
	} else {
		sub, err := fs.Sub(mockData, "mockdata")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	mhs, err := loadFixture(fsys, mhsFixture)
	if err != nil {
		return nil, err
	}
	as, err := loadFixture(fsys, asFixture)
	if err != nil {
		return nil, err
	}
	return &MockDirectory{mhs: mhs, as: as, mode: mode, pause: pause}, nil
}

func loadFixture(fsys fs.FS, name string) ([]Record, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read mock fixture: %w", err)
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse mock fixture %s: %w", name, err)
	}

	records := make([]Record, 0, len(raw))
	for i, obj := range raw {
		r := make(Record, len(obj))
		for k, v := range obj {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				r.Set(k, Scalar(s))
				continue
			}
			var list []string
			if err := json.Unmarshal(v, &list); err != nil {
				return nil, fmt.Errorf("mock fixture %s record %d: attribute %s must be a string or array of strings", name, i, k)
			}
			r.Set(k, List(list...))
		}
		records = append(records, r)
	}
	return records, nil
}

func (m *MockDirectory) Search(ctx context.Context, q Query, attributes []string) ([]Record, error) {
	return m.SearchStrict(ctx, q, attributes)
}

func (m *MockDirectory) SearchStrict(ctx context.Context, q Query, _ []string) ([]Record, error) {
	if m.pause > 0 {
		t := time.NewTimer(m.pause)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	data := m.dataset(q)
	out := []Record{}
	switch m.mode {
	case ModeFirst:
		if len(data) > 0 {
			out = append(out, data[0].Clone())
		}
	case ModeRandom:
		if len(data) > 0 {
			out = append(out, data[rand.Intn(len(data))].Clone())
		}
	default:
		for _, r := range data {
			if matches(r, q) {
				out = append(out, r.Clone())
			}
		}
	}
	return out, nil
}

// Ping always succeeds.
func (m *MockDirectory) Ping(context.Context) error { return nil }

// dataset picks the fixture from the objectClass constraint. Without one
// both fixtures are searched.
func (m *MockDirectory) dataset(q Query) []Record {
	for _, p := range q {
		if !strings.EqualFold(p.Attribute, AttrObjectClass) {
			continue
		}
		switch {
		case strings.EqualFold(p.Value, MHSObjectClass):
			return m.mhs
		case strings.EqualFold(p.Value, ASObjectClass):
			return m.as
		}
	}
	return append(append([]Record(nil), m.mhs...), m.as...)
}

// matches reports whether every valued part other than objectClass is
// satisfied by one of the record's values for that attribute.
func matches(r Record, q Query) bool {
	for _, p := range q.Present().Without(AttrObjectClass) {
		a, ok := r.Get(p.Attribute)
		if !ok {
			return false
		}
		found := false
		for _, v := range a.Values {
			if strings.EqualFold(v, p.Value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
