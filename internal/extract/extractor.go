package extract

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"consent/sync/internal/config"
	"consent/sync/internal/domain"
	"consent/sync/internal/proxy"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const cookieDatabaseKeyPrefix = "consentsync:cookiedb:"

// Cache stores the cookie database between runs. Get returns nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Extractor interface {
	Extract(ctx context.Context) (*Result, error)
	Close() error
}

// Result is the local taxonomy together with the flat rows used for export.
type Result struct {
	Taxonomy   *domain.Taxonomy
	CookieRows []domain.CookieRow
	TagRows    []domain.TagRow
	Host       string
	ConfigURL  string
}

type extractor struct {
	config  config.KetchConfig
	timeout time.Duration
	cache   Cache
	proxies proxy.Supplier

	mu      sync.Mutex
	clients map[string]*resty.Client // keyed by proxy URL, "" for direct
}

// NewExtractor returns an extractor for the configured site. cache and
// proxies may be nil.
func NewExtractor(cfg config.KetchConfig, cache Cache, proxies proxy.Supplier) Extractor {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &extractor{
		config:  cfg,
		timeout: timeout,
		cache:   cache,
		proxies: proxies,
		clients: make(map[string]*resty.Client),
	}
}

func (e *extractor) client(proxyURL string) *resty.Client {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clients[proxyURL]; ok {
		return c
	}

	c := resty.New().
		SetTimeout(e.timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept-Language", "en-US,en;q=0.5")
	if proxyURL != "" {
		c.SetProxy(proxyURL)
		log.Infof("🔗 Using proxy: %s", proxyURL)
	}

	e.clients[proxyURL] = c
	return c
}

func (e *extractor) Extract(ctx context.Context) (*Result, error) {
	configURL, err := e.configURL(ctx)
	if err != nil {
		return nil, &domain.ExtractionError{Stage: "discover", Err: err}
	}

	host := e.host()
	if host == "" {
		log.Warnf("⚠️ No site host configured, first-party cookies will have an empty domain")
	}

	log.Infof("🔄 Fetching Ketch config %s", configURL)

	var (
		configBody []byte
		db         *CookieDatabase
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := e.fetch(gctx, configURL)
		if err != nil {
			return fmt.Errorf("failed to fetch ketch config: %w", err)
		}
		configBody = body
		return nil
	})
	g.Go(func() error {
		loaded, err := e.cookieDatabase(gctx)
		if err != nil {
			return err
		}
		db = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &domain.ExtractionError{Stage: "fetch", Err: err}
	}

	ketchConfig, err := ParseKetchConfig(configBody)
	if err != nil {
		return nil, &domain.ExtractionError{Stage: "parse", Err: err}
	}

	cookieRows, tagRows := BuildRows(ketchConfig, db, host)

	taxonomy, err := domain.NewTaxonomy(cookieRows, tagRows)
	if err != nil {
		return nil, err
	}

	log.Infof("✅ Extracted %d categories, %d cookies, %d tags for %s",
		taxonomy.Len(), len(cookieRows), len(tagRows), host)

	return &Result{
		Taxonomy:   taxonomy,
		CookieRows: cookieRows,
		TagRows:    tagRows,
		Host:       host,
		ConfigURL:  configURL,
	}, nil
}

func (e *extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for key, c := range e.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.clients, key)
	}
	return firstErr
}

func (e *extractor) configURL(ctx context.Context) (string, error) {
	if e.config.ConfigURL != "" {
		return e.config.ConfigURL, nil
	}
	if e.config.SiteURL == "" {
		return "", ErrConfigNotFound
	}

	page, err := e.fetch(ctx, e.config.SiteURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch site page: %w", err)
	}

	return DiscoverConfigURL(string(page), e.config.SiteURL)
}

func (e *extractor) host() string {
	if e.config.Host != "" {
		return NormalizeHost(e.config.Host)
	}
	if e.config.SiteURL == "" {
		return ""
	}
	u, err := url.Parse(e.config.SiteURL)
	if err != nil {
		return ""
	}
	return NormalizeHost(u.Hostname())
}

func (e *extractor) cookieDatabase(ctx context.Context) (*CookieDatabase, error) {
	key := cookieDatabaseKeyPrefix + e.config.CookieDatabaseURL

	if e.cache != nil {
		cached, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Warnf("⚠️ Failed to read cookie database from cache: %v", err)
		} else if cached != nil {
			db, err := ParseCookieDatabase(cached)
			if err == nil {
				log.Debugf("Loaded %d cookie database entries from cache", db.Len())
				return db, nil
			}
			log.Warnf("⚠️ Ignoring corrupt cached cookie database: %v", err)
		}
	}

	body, err := e.fetch(ctx, e.config.CookieDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cookie database: %w", err)
	}

	db, err := ParseCookieDatabase(body)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, body); err != nil {
			log.Warnf("⚠️ Failed to cache cookie database: %v", err)
		}
	}

	log.Debugf("Fetched %d cookie database entries", db.Len())
	return db, nil
}

// fetch GETs target, switching to the next proxy once when a proxied
// request fails.
func (e *extractor) fetch(ctx context.Context, target string) ([]byte, error) {
	proxyURL := ""
	if e.proxies != nil {
		proxyURL = e.proxies.Get()
	}

	body, err := e.fetchVia(ctx, target, proxyURL)
	if err == nil || proxyURL == "" || ctx.Err() != nil {
		return body, err
	}

	e.proxies.MarkFailed(proxyURL)
	next := e.proxies.Get()
	if next == "" || next == proxyURL {
		return nil, err
	}

	log.Infof("🔄 Retrying %s with proxy %s", target, next)
	return e.fetchVia(ctx, target, next)
}

func (e *extractor) fetchVia(ctx context.Context, target, proxyURL string) ([]byte, error) {
	resp, err := e.client(proxyURL).R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	return []byte(resp.String()), nil
}
