// Package discord implements the Discord REST API client.
package discord

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
	ChannelEndpoint = "/channels/{channel}"
	MessageEndpoint = "/channels/{channel}/messages/{id}"
	UserEndpoint    = "/users/{id}"
)

// Client implements domain.Provider for Discord using a bot token.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new Discord client.
func New(cfg provider.ClientConfig, botToken string, logger *zap.Logger) *Client {
	client := provider.NewRestyClient(cfg).
		SetHeader("Authorization", "Bot "+botToken)

	return &Client{
		client: client,
		cb:     provider.NewCircuitBreaker[*resty.Response](domain.ProviderDiscord, cfg.CB, logger),
		logger: logger.With(zap.String("provider", domain.ProviderDiscord)),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return domain.ProviderDiscord
}

// Objects returns the record shapes served by Discord.
func (c *Client) Objects() map[string]domain.RecordFactory {
	return map[string]domain.RecordFactory{
		domain.ObjectMessage: func() domain.Record { return &domain.DiscordMessage{} },
		domain.ObjectUser:    func() domain.Record { return &domain.DiscordUser{} },
	}
}

// Fetch retrieves a message or a user. Every failure, transport errors
// included, yields no record.
func (c *Client) Fetch(ctx context.Context, urn domain.URN) (domain.Record, error) {
	var (
		record domain.Record
		err    error
	)

	switch urn.Object {
	case domain.ObjectMessage:
		record, err = c.fetchMessage(ctx, urn.ExtraField(domain.ExtraChannelID), urn.Identifier)
	case domain.ObjectUser:
		record, err = c.fetchUser(ctx, urn.Identifier)
	default:
		return nil, nil
	}

	if err != nil {
		c.logger.Warn("discord fetch failed",
			zap.String("urn", urn.String()),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, nil
	}

	return record, nil
}

func (c *Client) fetchMessage(ctx context.Context, channelID, messageID string) (domain.Record, error) {
	if channelID == "" {
		return nil, nil
	}

	var ch channel
	ok, err := c.get(ctx, ChannelEndpoint, map[string]string{"channel": channelID}, &ch)
	if err != nil || !ok {
		return nil, err
	}

	var msg message
	ok, err = c.get(ctx, MessageEndpoint, map[string]string{"channel": channelID, "id": messageID}, &msg)
	if err != nil || !ok {
		return nil, err
	}

	result := msg.ToDomain(ch.GuildID)
	c.logger.Info("discord message fetched",
		zap.String("id", result.MessageID),
		zap.String("url", result.FullURL),
	)

	return result, nil
}

func (c *Client) fetchUser(ctx context.Context, userID string) (domain.Record, error) {
	var u user
	ok, err := c.get(ctx, UserEndpoint, map[string]string{"id": userID}, &u)
	if err != nil || !ok {
		return nil, err
	}

	result := u.ToDomain()
	c.logger.Info("discord user fetched",
		zap.String("id", result.UserID),
		zap.String("name", result.Name),
	)

	return result, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) (bool, error) {
	resp, err := provider.Call(c.cb, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetPathParams(params).
			Get(endpoint)
	})
	if err != nil {
		return false, fmt.Errorf("fetching from discord: %w", err)
	}
	if resp == nil {
		return false, nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return false, fmt.Errorf("decoding discord response: %w", err)
	}

	return true, nil
}
