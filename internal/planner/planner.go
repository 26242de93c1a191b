// Package planner builds the positional patch batches that replace a remote
// child collection with the local one.
package planner

import (
	"consent/sync/internal/domain"
)

// Plan is an ordered batch of patch operations for one child collection.
type Plan struct {
	Kind domain.ChildKind
	Ops  []domain.PatchOperation
}

func (p *Plan) Len() int {
	return len(p.Ops)
}

// IsEmpty reports whether sending the plan would be a no-op.
func (p *Plan) IsEmpty() bool {
	return len(p.Ops) == 0
}

// RemoveAll empties a collection of length n. Every operation targets index 0
// because the service reindexes the collection after each removal, so the
// batch is only valid against the snapshot it was computed from.
func RemoveAll(kind domain.ChildKind, n int) *Plan {
	if n < 0 {
		n = 0
	}

	ops := make([]domain.PatchOperation, n)
	for i := range ops {
		ops[i] = domain.PatchOperation{
			Op:   domain.OpRemove,
			Path: domain.IndexPath(0),
		}
	}

	return &Plan{Kind: kind, Ops: ops}
}

// AddCookies fills an empty cookie collection with rows in order.
func AddCookies(rows []domain.CookieRow) *Plan {
	ops := make([]domain.PatchOperation, len(rows))
	for i, row := range rows {
		ops[i] = domain.PatchOperation{
			Op:    domain.OpAdd,
			Path:  domain.IndexPath(i),
			Value: CookieValue(row),
		}
	}

	return &Plan{Kind: domain.KindCookies, Ops: ops}
}

// AddTags fills an empty tag collection with rows in order.
func AddTags(rows []domain.TagRow) *Plan {
	ops := make([]domain.PatchOperation, len(rows))
	for i, row := range rows {
		ops[i] = domain.PatchOperation{
			Op:    domain.OpAdd,
			Path:  domain.IndexPath(i),
			Value: TagValue(row),
		}
	}

	return &Plan{Kind: domain.KindTags, Ops: ops}
}

// AddAll builds the add batch for one kind of a local category.
func AddAll(category domain.LocalCategory, kind domain.ChildKind) *Plan {
	switch kind {
	case domain.KindCookies:
		return AddCookies(category.Cookies)
	case domain.KindTags:
		return AddTags(category.Tags)
	default:
		return &Plan{Kind: kind, Ops: []domain.PatchOperation{}}
	}
}

func CookieValue(row domain.CookieRow) domain.CookieValue {
	return domain.CookieValue{
		NameType:   domain.NameTypeExactMatch,
		Name:       row.Name,
		DomainType: domain.DomainTypeExactMatch,
		Domain:     row.Domain,
	}
}

func TagValue(row domain.TagRow) domain.TagValue {
	return domain.TagValue{
		TagID:    row.Vendor,
		Accounts: []string{},
	}
}
