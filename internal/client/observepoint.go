package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"consent/sync/internal/config"
	"consent/sync/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// ConsentClient is the remote resource client for consent categories and
// their cookie and tag collections.
type ConsentClient interface {
	CreateCategory(ctx context.Context, category domain.NewCategory) (domain.CategoryID, error)
	ListCategories(ctx context.Context) ([]domain.RemoteCategory, error)
	GetChildren(ctx context.Context, id domain.CategoryID, kind domain.ChildKind) ([]json.RawMessage, error)
	PatchChildren(ctx context.Context, id domain.CategoryID, kind domain.ChildKind, ops []domain.PatchOperation) error
	Close() error
}

const maxLibraryPages = 1000

type consentClient struct {
	rl         ratelimit.Limiter
	config     config.ObservePointConfig
	httpClient *resty.Client
}

type createdCategory struct {
	ID domain.CategoryID `json:"id"`
}

type categoryLibrary struct {
	ConsentCategories []domain.RemoteCategory `json:"consentCategories"`
}

// NewConsentClient builds a client for the consent API. Requests are never
// retried: a replayed positional patch would corrupt the collection.
func NewConsentClient(cfg config.ObservePointConfig) ConsentClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(0).
		SetAuthToken(cfg.APIKey).
		SetHeader("Accept", "application/json")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &consentClient{
		rl:         rl,
		config:     cfg,
		httpClient: client,
	}
}

func (c *consentClient) CreateCategory(ctx context.Context, category domain.NewCategory) (domain.CategoryID, error) {
	var created createdCategory
	err := c.do(ctx, http.MethodPost, "/consent-categories", c.httpClient.R().SetBody(category), &created)
	if err != nil {
		return "", err
	}

	log.Debugf("Created consent category %q with id %s", category.Name, created.ID)
	return created.ID, nil
}

// ListCategories walks the category library page by page until a page comes
// back shorter than the page size.
func (c *consentClient) ListCategories(ctx context.Context) ([]domain.RemoteCategory, error) {
	pageSize := c.config.LibraryPageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	categories := make([]domain.RemoteCategory, 0, pageSize)
	for page := 0; page < maxLibraryPages; page++ {
		req := c.httpClient.R().SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"pageSize": strconv.Itoa(pageSize),
			"sortBy":   "updated_at",
			"sortDesc": "true",
		})

		var library categoryLibrary
		if err := c.do(ctx, http.MethodGet, "/consent-categories/library", req, &library); err != nil {
			return nil, fmt.Errorf("failed to list consent categories page %d: %w", page, err)
		}

		categories = append(categories, library.ConsentCategories...)
		if len(library.ConsentCategories) < pageSize {
			return categories, nil
		}
		log.Debugf("Fetched consent category library page %d (%d categories)", page, len(library.ConsentCategories))
	}

	log.Warnf("⚠️ Stopped listing consent categories after %d pages", maxLibraryPages)
	return categories, nil
}

func (c *consentClient) GetChildren(ctx context.Context, id domain.CategoryID, kind domain.ChildKind) ([]json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, childrenPath(id, kind), c.httpClient.R(), &body); err != nil {
		return nil, err
	}

	raw, ok := body[kind.String()]
	if !ok || string(raw) == "null" {
		return []json.RawMessage{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s of consent category %s: %w", kind, id, err)
	}

	return rows, nil
}

func (c *consentClient) PatchChildren(ctx context.Context, id domain.CategoryID, kind domain.ChildKind, ops []domain.PatchOperation) error {
	if len(ops) == 0 {
		return nil
	}

	req := c.httpClient.R().
		SetHeader("Content-Type", "application/json").
		SetBody(ops)

	return c.do(ctx, http.MethodPatch, childrenPath(id, kind), req, nil)
}

func (c *consentClient) Close() error {
	return c.httpClient.Close()
}

func (c *consentClient) do(ctx context.Context, method, endpoint string, req *resty.Request, out any) error {
	c.rl.Take()

	resp, err := req.SetContext(ctx).Execute(method, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to %s %s: %w", method, endpoint, err)
	}

	if !resp.IsSuccess() {
		return &domain.RemoteAPIError{
			Method:   method,
			Endpoint: endpoint,
			Status:   resp.StatusCode(),
			Body:     resp.String(),
		}
	}

	log.Debugf("%s %s -> %d", method, endpoint, resp.StatusCode())

	if out == nil {
		return nil
	}

	if err := json.Unmarshal([]byte(resp.String()), out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, endpoint, err)
	}

	return nil
}

func childrenPath(id domain.CategoryID, kind domain.ChildKind) string {
	return fmt.Sprintf("/consent-categories/%s/%s", id, kind)
}
