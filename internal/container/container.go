package container

import (
	"context"
	"fmt"
	"strings"

	"consent/sync/internal/cache"
	"consent/sync/internal/client"
	"consent/sync/internal/config"
	"consent/sync/internal/domain"
	"consent/sync/internal/export"
	"consent/sync/internal/extract"
	"consent/sync/internal/proxy"
	"consent/sync/internal/repository"
	"consent/sync/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Client    client.ConsentClient // nil without an API key
	Extractor extract.Extractor
	Reports   repository.ReportRepository
	Service   *service.Service

	db    *pgxpool.Pool
	cache *cache.RedisCache
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	var extractCache extract.Cache
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		container.cache = rc
		extractCache = rc
	}

	var proxies proxy.Supplier
	if len(cfg.Ketch.Proxies) > 0 {
		proxies = proxy.NewRotator(cfg.Ketch.Proxies)
		log.Infof("🔗 Using %d proxies for extraction", len(cfg.Ketch.Proxies))
	}

	container.Extractor = extract.NewExtractor(cfg.Ketch, extractCache, proxies)

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		container.db = db

		reports := repository.NewReportRepository(db)
		if err := reports.EnsureSchema(ctx); err != nil {
			_ = container.Close()
			return nil, err
		}
		container.Reports = reports
		log.Info("✅ Connected to report database")
	}

	if cfg.ObservePoint.APIKey != "" {
		container.Client = client.NewConsentClient(cfg.ObservePoint)
		container.Service = service.NewService(container.Client, container.Reports)
	}

	return container, nil
}

// Extract builds the local taxonomy from the configured site.
func (c *Container) Extract(ctx context.Context) (*extract.Result, error) {
	if err := c.Config.ValidateSource(); err != nil {
		return nil, err
	}
	return c.Extractor.Extract(ctx)
}

// Export writes the extracted rows as CSV files.
func (c *Container) Export(ctx context.Context) (*export.Files, error) {
	result, err := c.Extract(ctx)
	if err != nil {
		return nil, err
	}
	return export.WriteFiles(c.Config.Export.OutputDir, result.Host, result.CookieRows, result.TagRows)
}

// Sync extracts the local taxonomy and pushes it in the configured mode.
func (c *Container) Sync(ctx context.Context) (*domain.Report, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	if c.Service == nil {
		return nil, fmt.Errorf("consent client is not configured")
	}

	result, err := c.Extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}

	if c.Config.Mode() == domain.ModeUpdate {
		log.Infof("🔄 Local categories: [%s]", strings.Join(result.Taxonomy.Names(), ", "))
	}

	return c.Service.Sync(ctx, result.Taxonomy, service.Request{
		Mode:           c.Config.Mode(),
		IncludeCookies: c.Config.Sync.IncludeCookies,
		IncludeTags:    c.Config.Sync.IncludeTags,
		SelectedNames:  c.Config.Sync.SelectedNames,
	})
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.Client != nil {
		_ = c.Client.Close()
	}
	if c.Extractor != nil {
		_ = c.Extractor.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.cache != nil {
		_ = c.cache.Close()
	}

	return nil
}
