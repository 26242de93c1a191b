package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"consent/sync/internal/domain"
)

// KetchConfig is the subset of a Ketch site configuration used to build rows.
// Older configs list "categories" instead of "purposes".
type KetchConfig struct {
	Purposes   []KetchPurpose `json:"purposes"`
	Categories []KetchPurpose `json:"categories"`
}

type KetchPurpose struct {
	Title   Label         `json:"title"`
	Name    Label         `json:"name"`
	Cookies []KetchCookie `json:"cookies"`
}

type KetchCookie struct {
	Name            Label `json:"name"`
	Code            Label `json:"code"`
	ID              Label `json:"ID"`
	ServiceProvider Label `json:"serviceProvider"`
}

// Label is a Ketch config text field. Configs carry numbers and booleans in
// these fields too; those decode to their JSON text, and false, null,
// objects and arrays decode to an empty label.
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*l = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode label: %w", err)
		}
		*l = Label(s)
	case 't':
		*l = "true"
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("failed to decode label: %w", err)
		}
		*l = Label(n.String())
	default:
		*l = ""
	}
	return nil
}

func ParseKetchConfig(data []byte) (*KetchConfig, error) {
	var cfg KetchConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode ketch config: %w", err)
	}
	return &cfg, nil
}

func (c *KetchConfig) purposes() []KetchPurpose {
	if c.Purposes != nil {
		return c.Purposes
	}
	return c.Categories
}

func (p KetchPurpose) label() string {
	if p.Title != "" {
		return string(p.Title)
	}
	return string(p.Name)
}

func (c KetchCookie) label() string {
	switch {
	case c.Name != "":
		return string(c.Name)
	case c.Code != "":
		return string(c.Code)
	default:
		return string(c.ID)
	}
}

// BuildRows turns a Ketch config into cookie and tag rows. First-party
// cookies (no service provider) take the site host as their domain; vendor
// cookies are resolved through the cookie database.
func BuildRows(cfg *KetchConfig, db *CookieDatabase, host string) ([]domain.CookieRow, []domain.TagRow) {
	cookieRows := make([]domain.CookieRow, 0)
	tagRows := make([]domain.TagRow, 0)

	type tagKey struct{ category, vendor string }
	seen := make(map[tagKey]struct{})

	for _, purpose := range cfg.purposes() {
		category := purpose.label()

		for _, cookie := range purpose.Cookies {
			name := cookie.label()
			vendor := string(cookie.ServiceProvider)

			cookieDomain := host
			if vendor != "" {
				cookieDomain = ""
				if db != nil {
					cookieDomain = db.ResolveDomain(name)
				}
			}

			cookieRows = append(cookieRows, domain.CookieRow{
				Category: category,
				Name:     name,
				Domain:   cookieDomain,
				Vendor:   vendor,
			})

			if vendor == "" {
				continue
			}
			key := tagKey{category, vendor}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tagRows = append(tagRows, domain.TagRow{Category: category, Vendor: vendor})
		}
	}

	return cookieRows, tagRows
}

// NormalizeHost strips a leading "www." from a host name.
func NormalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
