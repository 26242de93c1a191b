package export

import (
	"bytes"
	"os"
	"testing"

	"consent/sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCookies(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCookies(&buf, []domain.CookieRow{
		{Category: "Marketing", Name: "_fbp", Domain: "facebook.com", Vendor: "Facebook"},
		{Category: "Functional", Name: `say "hi"`, Domain: "", Vendor: ""},
	})
	require.NoError(t, err)

	want := `"Consent Category","Cookie Name","Cookie Domain","Vendor"` + "\r\n" +
		`"Marketing","_fbp","facebook.com","Facebook"` + "\r\n" +
		`"Functional","say ""hi""","",""`
	assert.Equal(t, want, buf.String())
}

func TestWriteTags_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTags(&buf, nil))
	assert.Equal(t, `"Consent Category","Tag Name"`, buf.String())
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()

	files, err := WriteFiles(dir, "example.com",
		[]domain.CookieRow{{Category: "Analytics", Name: "_ga", Domain: "google.com", Vendor: "Google"}},
		[]domain.TagRow{{Category: "Analytics", Vendor: "Google"}},
	)
	require.NoError(t, err)

	assert.Contains(t, files.Cookies, "ketch_cookies_example.com.csv")
	assert.Contains(t, files.Tags, "ketch_tags_example.com.csv")

	tags, err := os.ReadFile(files.Tags)
	require.NoError(t, err)
	assert.Equal(t, `"Consent Category","Tag Name"`+"\r\n"+`"Analytics","Google"`, string(tags))
}
