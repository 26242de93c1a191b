package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// CookieEntry is one record of the Open Cookie Database.
type CookieEntry struct {
	ID             string `json:"id"`
	Platform       string `json:"platform"`
	Category       string `json:"category"`
	Cookie         string `json:"cookie"`
	Domain         string `json:"domain"`
	Description    string `json:"description"`
	DataController string `json:"dataController"`
	WildcardMatch  string `json:"wildcardMatch"`
}

// CookieDatabase is the flattened lookup table, in file order.
type CookieDatabase struct {
	entries []CookieEntry
}

var hostPattern = regexp.MustCompile(`(?i)([a-z0-9.-]+\.[a-z]{2,})(?:\s|\(|$)`)

// ParseCookieDatabase decodes the platform-keyed database and flattens it
// while keeping the order of the file, since lookups return the first hit.
func ParseCookieDatabase(data []byte) (*CookieDatabase, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie database: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("cookie database must be a JSON object, got %v", tok)
	}

	db := &CookieDatabase{entries: make([]CookieEntry, 0)}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to read cookie database platform: %w", err)
		}

		var entries []CookieEntry
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode cookie database entries: %w", err)
		}
		db.entries = append(db.entries, entries...)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to finish cookie database: %w", err)
	}

	return db, nil
}

func (db *CookieDatabase) Len() int {
	return len(db.entries)
}

// Lookup returns the first entry whose cookie equals name, or whose cookie is
// a prefix of name when the entry is a wildcard match.
func (db *CookieDatabase) Lookup(name string) (CookieEntry, bool) {
	for _, e := range db.entries {
		if e.Cookie == name {
			return e, true
		}
		if e.WildcardMatch == "1" && strings.HasPrefix(name, e.Cookie) {
			return e, true
		}
	}
	return CookieEntry{}, false
}

// ResolveDomain returns the first host-looking token of the entry's domain
// description, e.g. "google.com" from "google.com (3rd party)".
func (db *CookieDatabase) ResolveDomain(name string) string {
	entry, ok := db.Lookup(name)
	if !ok {
		return ""
	}
	return HostFromDescription(entry.Domain)
}

func HostFromDescription(raw string) string {
	m := hostPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
