package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CookieRow is one declared cookie within a consent category.
type CookieRow struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Domain   string `json:"domain"` // empty when unresolved
	Vendor   string `json:"vendor"` // empty for first-party cookies
}

// Record returns the row in CSV column order.
func (r CookieRow) Record() []string {
	return []string{r.Category, r.Name, r.Domain, r.Vendor}
}

// TagRow is one vendor association within a consent category.
type TagRow struct {
	Category string `json:"category"`
	Vendor   string `json:"vendor"`
}

func (r TagRow) Record() []string {
	return []string{r.Category, r.Vendor}
}

type LocalCategory struct {
	Name    string      `json:"name"`
	Cookies []CookieRow `json:"cookies"`
	Tags    []TagRow    `json:"tags"`
}

// CategoryID is the identifier assigned by the consent service. The API
// returns numbers, but the value is treated as opaque.
type CategoryID string

func (id CategoryID) String() string {
	return string(id)
}

func (id *CategoryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode category id: %w", err)
		}
		*id = CategoryID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode category id: %w", err)
	}
	*id = CategoryID(n.String())
	return nil
}

// RemoteCategory is a consent category as listed by the consent service.
type RemoteCategory struct {
	ID   CategoryID `json:"id"`
	Name string     `json:"name"`
}

// NewCategory is the creation payload for a consent category.
type NewCategory struct {
	Name        string `json:"name"`
	Notes       string `json:"notes"`
	Type        string `json:"type"`
	IsDefaultCC bool   `json:"isDefaultCC"`
}

const CategoryTypeApproved = "approved"

// NewApprovedCategory returns the payload used when importing a local category.
func NewApprovedCategory(name string) NewCategory {
	return NewCategory{
		Name:        name,
		Notes:       "",
		Type:        CategoryTypeApproved,
		IsDefaultCC: false,
	}
}
