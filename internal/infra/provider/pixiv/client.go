// Package pixiv implements the pixiv ajax API client.
package pixiv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/infra/provider"
)

// Endpoints relative to the configured base URL.
const (
	IllustEndpoint = "/ajax/illust/{id}"
	UserEndpoint   = "/ajax/user/{id}"

	// Referer is required by the ajax API.
	Referer = "https://www.pixiv.net/"
)

// Client implements domain.Provider for pixiv.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new pixiv client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	client := provider.NewRestyClient(cfg).
		SetHeader("Referer", Referer).
		SetHeader("Accept", "application/json")

	return &Client{
		client: client,
		cb:     provider.NewCircuitBreaker[*resty.Response](domain.ProviderPixiv, cfg.CB, logger),
		logger: logger.With(zap.String("provider", domain.ProviderPixiv)),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return domain.ProviderPixiv
}

// Objects returns the record shapes served by pixiv.
func (c *Client) Objects() map[string]domain.RecordFactory {
	return map[string]domain.RecordFactory{
		domain.ObjectArtwork: func() domain.Record { return &domain.PixivArtwork{} },
		domain.ObjectUser:    func() domain.Record { return &domain.PixivUser{} },
	}
}

// Fetch retrieves an artwork or a user.
func (c *Client) Fetch(ctx context.Context, urn domain.URN) (domain.Record, error) {
	if !isNumericID(urn.Identifier) {
		return nil, nil
	}

	switch urn.Object {
	case domain.ObjectArtwork:
		var body illustBody
		ok, err := c.get(ctx, IllustEndpoint, urn.Identifier, "0", &body)
		if err != nil || !ok {
			return nil, err
		}

		c.logger.Info("pixiv artwork fetched", zap.String("id", body.IllustID))

		return body.ToDomain(), nil

	case domain.ObjectUser:
		var body userBody
		ok, err := c.get(ctx, UserEndpoint, urn.Identifier, "1", &body)
		if err != nil || !ok {
			return nil, err
		}

		c.logger.Info("pixiv user fetched", zap.String("id", body.UserID))

		return body.ToDomain(), nil

	default:
		return nil, nil
	}
}

func (c *Client) get(ctx context.Context, endpoint, id, full string, out any) (bool, error) {
	resp, err := provider.Call(c.cb, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetPathParam("id", id).
			SetQueryParam("full", full).
			Get(endpoint)
	})
	if err != nil {
		c.logger.Warn("pixiv fetch failed",
			zap.String("id", id),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return false, fmt.Errorf("fetching from pixiv: %w", err)
	}
	if resp == nil {
		c.logger.Debug("pixiv object not available", zap.String("id", id))

		return false, nil
	}

	var envelope ajaxResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return false, fmt.Errorf("decoding pixiv response: %w", err)
	}
	if envelope.Error {
		c.logger.Debug("pixiv reported an error",
			zap.String("id", id),
			zap.String("message", envelope.Message),
		)

		return false, nil
	}

	if err := json.Unmarshal(envelope.Body, out); err != nil {
		return false, fmt.Errorf("decoding pixiv body: %w", err)
	}

	return true, nil
}
