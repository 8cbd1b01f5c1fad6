// Package tumblr implements the Tumblr page scraper client.
package tumblr

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/infra/provider"
)

// Page paths relative to the configured base URL.
const (
	BlogEndpoint = "/{blog}/"
	PostEndpoint = "/{blog}/{id}/"
)

// Client implements domain.Provider for Tumblr.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new Tumblr client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: provider.NewRestyClient(cfg).SetHeader("Accept", "text/html"),
		cb:     provider.NewCircuitBreaker[*resty.Response](domain.ProviderTumblr, cfg.CB, logger),
		logger: logger.With(zap.String("provider", domain.ProviderTumblr)),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return domain.ProviderTumblr
}

// Objects returns the record shapes served by Tumblr.
func (c *Client) Objects() map[string]domain.RecordFactory {
	return map[string]domain.RecordFactory{
		domain.ObjectBlog: func() domain.Record { return &domain.TumblrBlog{} },
		domain.ObjectPost: func() domain.Record { return &domain.TumblrPost{} },
	}
}

// Fetch retrieves a blog or a post.
func (c *Client) Fetch(ctx context.Context, urn domain.URN) (domain.Record, error) {
	switch urn.Object {
	case domain.ObjectBlog:
		state, err := c.page(ctx, BlogEndpoint, map[string]string{"blog": urn.Identifier})
		if err != nil || state == nil {
			return nil, err
		}

		blog, err := state.blog()
		if err != nil {
			return nil, fmt.Errorf("decoding tumblr blog %s: %w", urn.Identifier, err)
		}
		if blog == nil {
			return nil, nil
		}

		c.logger.Info("tumblr blog fetched", zap.String("blog", blog.Name))

		return blog.ToDomain(), nil

	case domain.ObjectPost:
		blogName := urn.ExtraField(domain.ExtraBlogName)
		if blogName == "" {
			return nil, nil
		}

		state, err := c.page(ctx, PostEndpoint, map[string]string{"blog": blogName, "id": urn.Identifier})
		if err != nil || state == nil {
			return nil, err
		}

		post := state.post()
		if post == nil {
			return nil, nil
		}

		c.logger.Info("tumblr post fetched",
			zap.String("blog", post.BlogName),
			zap.String("id", post.IDString),
		)

		return post.ToDomain(), nil

	default:
		return nil, nil
	}
}

// page downloads a page and extracts its state. A nil state means the page
// is not available.
func (c *Client) page(ctx context.Context, endpoint string, params map[string]string) (*initialState, error) {
	resp, err := provider.Call(c.cb, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetPathParams(params).
			Get(endpoint)
	})
	if err != nil {
		c.logger.Warn("tumblr fetch failed",
			zap.Any("params", params),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("fetching from tumblr: %w", err)
	}
	if resp == nil {
		return nil, nil
	}

	state, err := parseInitialState(resp.String())
	if err != nil {
		return nil, fmt.Errorf("parsing tumblr page: %w", err)
	}

	return state, nil
}
