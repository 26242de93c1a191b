package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"consent/sync/internal/domain"

	log "github.com/sirupsen/logrus"
)

var (
	CookieHeader = []string{"Consent Category", "Cookie Name", "Cookie Domain", "Vendor"}
	TagHeader    = []string{"Consent Category", "Tag Name"}
)

type record interface {
	Record() []string
}

// WriteCookies writes cookie rows with every field quoted and CRLF line endings.
func WriteCookies(w io.Writer, rows []domain.CookieRow) error {
	return writeAll(w, CookieHeader, rows)
}

func WriteTags(w io.Writer, rows []domain.TagRow) error {
	return writeAll(w, TagHeader, rows)
}

func writeAll[T record](w io.Writer, header []string, rows []T) error {
	bw := bufio.NewWriter(w)

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, quoteLine(header))
	for _, row := range rows {
		lines = append(lines, quoteLine(row.Record()))
	}

	if _, err := bw.WriteString(strings.Join(lines, "\r\n")); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return bw.Flush()
}

func quoteLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// Files are the paths written by WriteFiles.
type Files struct {
	Cookies string
	Tags    string
}

// WriteFiles writes ketch_cookies_<host>.csv and ketch_tags_<host>.csv to dir.
func WriteFiles(dir, host string, cookies []domain.CookieRow, tags []domain.TagRow) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	files := &Files{
		Cookies: filepath.Join(dir, fmt.Sprintf("ketch_cookies_%s.csv", host)),
		Tags:    filepath.Join(dir, fmt.Sprintf("ketch_tags_%s.csv", host)),
	}

	if err := writeFile(files.Cookies, func(w io.Writer) error { return WriteCookies(w, cookies) }); err != nil {
		return nil, err
	}
	if err := writeFile(files.Tags, func(w io.Writer) error { return WriteTags(w, tags) }); err != nil {
		return nil, err
	}

	log.Infof("✅ Exported %d cookies to %s and %d tags to %s", len(cookies), files.Cookies, len(tags), files.Tags)
	return files, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
