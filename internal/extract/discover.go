package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var (
	configPathPattern = regexp.MustCompile(`/config/.*/config\.json`)
	inlineURLPattern  = regexp.MustCompile(`(?:https?:)?//[^\s"'<>]+/config/[^\s"'<>]*/config\.json`)
)

// ErrConfigNotFound means the page does not reference a Ketch config.
var ErrConfigNotFound = errors.New("ketch config not found")

// DiscoverConfigURL scans a page for the Ketch config.json reference, looking
// at script and link attributes first and then inline script bodies.
func DiscoverConfigURL(html string, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	var found string
	doc.Find("script[src], link[href], link[data-href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "href", "data-href"} {
			ref, ok := s.Attr(attr)
			if ok && configPathPattern.MatchString(ref) {
				found = ref
				return false
			}
		}
		return true
	})

	if found == "" {
		doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if m := inlineURLPattern.FindString(s.Text()); m != "" {
				found = m
				return false
			}
			return true
		})
	}

	if found == "" {
		return "", ErrConfigNotFound
	}

	ref, err := url.Parse(found)
	if err != nil {
		return "", fmt.Errorf("invalid config reference %q: %w", found, err)
	}

	resolved := base.ResolveReference(ref).String()
	log.Debugf("Found Ketch config reference: %s", resolved)
	return resolved, nil
}
