package domain

import (
	log "github.com/sirupsen/logrus"
)

// Taxonomy is the ordered, read-only set of local consent categories for a run.
type Taxonomy struct {
	categories []LocalCategory
	cookieRows []CookieRow
	tagRows    []TagRow
}

// NewTaxonomy groups cookie and tag rows into categories in first-seen order of
// the cookie rows. Tag rows are deduplicated per (category, vendor).
func NewTaxonomy(cookieRows []CookieRow, tagRows []TagRow) (*Taxonomy, error) {
	for i, row := range cookieRows {
		if row.Category == "" {
			return nil, NewValidationError("cookies", i, "cookie row references an empty category name")
		}
		if row.Name == "" {
			return nil, NewValidationError("cookies", i, "cookie row has an empty cookie name")
		}
	}
	for i, row := range tagRows {
		if row.Category == "" {
			return nil, NewValidationError("tags", i, "tag row references an empty category name")
		}
	}

	index := make(map[string]int)
	categories := make([]LocalCategory, 0)
	cookies := make([]CookieRow, 0, len(cookieRows))

	for _, row := range cookieRows {
		pos, ok := index[row.Category]
		if !ok {
			pos = len(categories)
			index[row.Category] = pos
			categories = append(categories, LocalCategory{
				Name:    row.Category,
				Cookies: make([]CookieRow, 0),
				Tags:    make([]TagRow, 0),
			})
		}
		categories[pos].Cookies = append(categories[pos].Cookies, row)
		cookies = append(cookies, row)
	}

	type tagKey struct{ category, vendor string }
	seen := make(map[tagKey]struct{})
	tags := make([]TagRow, 0, len(tagRows))

	for _, row := range tagRows {
		key := tagKey{row.Category, row.Vendor}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		pos, ok := index[row.Category]
		if !ok {
			log.Warnf("⚠️ Dropping tag %q: category %q has no cookies", row.Vendor, row.Category)
			continue
		}
		categories[pos].Tags = append(categories[pos].Tags, row)
		tags = append(tags, row)
	}

	return &Taxonomy{
		categories: categories,
		cookieRows: cookies,
		tagRows:    tags,
	}, nil
}

// Categories returns a copy of the categories so callers cannot mutate the taxonomy.
func (t *Taxonomy) Categories() []LocalCategory {
	out := make([]LocalCategory, len(t.categories))
	for i, c := range t.categories {
		out[i] = LocalCategory{
			Name:    c.Name,
			Cookies: append([]CookieRow(nil), c.Cookies...),
			Tags:    append([]TagRow(nil), c.Tags...),
		}
	}
	return out
}

func (t *Taxonomy) Len() int {
	return len(t.categories)
}

func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

func (t *Taxonomy) CookieRows() []CookieRow {
	return append([]CookieRow(nil), t.cookieRows...)
}

func (t *Taxonomy) TagRows() []TagRow {
	return append([]TagRow(nil), t.tagRows...)
}
