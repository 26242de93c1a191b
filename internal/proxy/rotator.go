package proxy

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Supplier hands out proxy URLs for outbound scraping requests.
type Supplier interface {
	Get() string
	MarkFailed(proxyURL string)
}

type rotator struct {
	mutex   sync.Mutex
	proxies []string
	current int
	known   map[string]struct{}
	failed  map[string]struct{}
}

// NewRotator returns a round-robin supplier. Proxies reported through
// MarkFailed are skipped until every proxy has failed, then all are retried.
// Duplicate and empty entries are dropped.
func NewRotator(proxies []string) Supplier {
	unique := make([]string, 0, len(proxies))
	seen := make(map[string]struct{}, len(proxies))
	for _, p := range proxies {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	return &rotator{
		proxies: unique,
		known:   seen,
		failed:  make(map[string]struct{}),
	}
}

func (r *rotator) Get() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.proxies) == 0 {
		return ""
	}

	if len(r.failed) >= len(r.proxies) {
		log.Warnf("⚠️ All %d proxies failed, retrying the full pool", len(r.proxies))
		r.failed = make(map[string]struct{})
	}

	for range r.proxies {
		proxy := r.proxies[r.current]
		r.current = (r.current + 1) % len(r.proxies)
		if _, bad := r.failed[proxy]; !bad {
			return proxy
		}
	}
	return ""
}

func (r *rotator) MarkFailed(proxyURL string) {
	if proxyURL == "" {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.known[proxyURL]; !ok {
		return
	}
	r.failed[proxyURL] = struct{}{}
	log.Infof("❌ Proxy %s marked as failed", proxyURL)
}
