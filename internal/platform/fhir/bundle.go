package fhir

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random upper-case UUID, the id format used for every
// generated resource.
func NewID() string {
	return strings.ToUpper(uuid.NewString())
}

// Bundle is a searchset Bundle. Entry is always serialised, as [] when empty.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Total        int           `json:"total"`
	Link         []BundleLink  `json:"link"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string       `json:"fullUrl"`
	Resource Resource     `json:"resource"`
	Search   BundleSearch `json:"search"`
}

type BundleSearch struct {
	Mode string `json:"mode"`
}

// NewSearchBundle wraps resources in a searchset Bundle with a fresh id.
// Each entry's fullUrl is baseURL followed by the resource id, and selfURL
// becomes the self link.
func NewSearchBundle[R Resource](resources []R, baseURL, selfURL string) *Bundle {
	entries := make([]BundleEntry, 0, len(resources))
	for _, r := range resources {
		entries = append(entries, BundleEntry{
			FullURL:  baseURL + r.ResourceID(),
			Resource: r,
			Search:   BundleSearch{Mode: "match"},
		})
	}

	return &Bundle{
		ResourceType: "Bundle",
		ID:           NewID(),
		Type:         "searchset",
		Total:        len(entries),
		Link: []BundleLink{
			{Relation: "self", URL: selfURL},
		},
		Entry: entries,
	}
}
