package domain

import "fmt"

// ChildKind names a child collection under a consent category.
type ChildKind string

func (k ChildKind) String() string {
	return string(k)
}

const (
	KindCookies ChildKind = "cookies"
	KindTags    ChildKind = "tags"
)

var ChildKinds = []ChildKind{
	KindCookies,
	KindTags,
}

const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// PatchOperation is a positional JSON-patch operation against a child collection.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// IndexPath formats a zero-based collection index as a patch path.
func IndexPath(i int) string {
	return fmt.Sprintf("/%d", i)
}

const (
	NameTypeExactMatch   = "name_exact_match"
	DomainTypeExactMatch = "domain_exact_match"
)

type CookieValue struct {
	NameType   string `json:"nameType"`
	Name       string `json:"name"`
	DomainType string `json:"domainType"`
	Domain     string `json:"domain"`
}

// TagValue carries the vendor name as TagID. The consent service expects a
// numeric tag id; resolving vendor names to tag ids is not implemented.
type TagValue struct {
	TagID    string   `json:"tagId"`
	Accounts []string `json:"accounts"`
}
