package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookieDatabase = `{
  "Google Analytics": [
    {"id": "1", "platform": "Google Analytics", "category": "Analytics", "cookie": "_ga", "domain": "google-analytics.com (3rd party)", "wildcardMatch": "0"},
    {"id": "2", "platform": "Google Analytics", "category": "Analytics", "cookie": "_ga_", "domain": "google-analytics.com (3rd party)", "wildcardMatch": "1"}
  ],
  "Facebook": [
    {"id": "3", "platform": "Facebook", "category": "Marketing", "cookie": "_fbp", "domain": "facebook.com", "wildcardMatch": "0"},
    {"id": "4", "platform": "Hotjar", "category": "Analytics", "cookie": "_hj", "domain": "Advertiser's website domain", "wildcardMatch": "1"}
  ]
}`

func TestParseCookieDatabase(t *testing.T) {
	db, err := ParseCookieDatabase([]byte(testCookieDatabase))
	require.NoError(t, err)
	assert.Equal(t, 4, db.Len())
	assert.Equal(t, "_ga", db.entries[0].Cookie)
	assert.Equal(t, "_hj", db.entries[3].Cookie)
}

func TestParseCookieDatabase_NotAnObject(t *testing.T) {
	_, err := ParseCookieDatabase([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestCookieDatabase_Lookup(t *testing.T) {
	db, err := ParseCookieDatabase([]byte(testCookieDatabase))
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie string
		wantID string
		wantOK bool
	}{
		{name: "exact", cookie: "_ga", wantID: "1", wantOK: true},
		{name: "wildcard prefix", cookie: "_ga_ABC123", wantID: "2", wantOK: true},
		{name: "non wildcard is not a prefix", cookie: "_fbp_x", wantOK: false},
		{name: "unknown", cookie: "session", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := db.Lookup(tt.cookie)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestHostFromDescription(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "google-analytics.com (3rd party)", want: "google-analytics.com"},
		{raw: "facebook.com", want: "facebook.com"},
		{raw: "ads.linkedin.com(3rd party)", want: "ads.linkedin.com"},
		{raw: "Advertiser's website domain", want: ""},
		{raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, HostFromDescription(tt.raw))
		})
	}
}
