// Package twitter implements the Twitter guest GraphQL client.
package twitter

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
	GuestActivateEndpoint    = "/1.1/guest/activate.json"
	TweetResultEndpoint      = "/graphql/5GOHgZe-8U2j5sVHQzEm9A/TweetResultByRestId"
	UserByScreenNameEndpoint = "/graphql/G3KGOASz96M-Qu0nwmGXNg/UserByScreenName"
)

// webBearerToken is the public token of the web client.
const webBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs=1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

var defaultVariables = map[string]any{
	"withCommunity":          false,
	"includePromotedContent": false,
	"withVoice":              false,
}

var defaultFeatures = map[string]bool{
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"tweetypie_unmention_optimization_enabled":                                true,
	"responsive_web_edit_tweet_api_enabled":                                   true,
	"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
	"view_counts_everywhere_api_enabled":                                      true,
	"longform_notetweets_consumption_enabled":                                 true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                false,
	"tweet_awards_web_tipping_enabled":                                        false,
	"responsive_web_home_pinned_timelines_enabled":                            true,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"longform_notetweets_inline_media_enabled":                                true,
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"verified_phone_label_enabled":                                            false,
	"responsive_web_media_download_video_enabled":                             false,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_enhance_cards_enabled":                                    false,
	"hidden_profile_likes_enabled":                                            true,
	"hidden_profile_subscriptions_enabled":                                    true,
	"subscriptions_verification_info_is_identity_verified_enabled":            true,
	"subscriptions_verification_info_verified_since_enabled":                  true,
	"highlights_tweets_tab_ui_enabled":                                        true,
}

// Client implements domain.Provider for Twitter.
// Every fetch activates a fresh guest session.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new Twitter client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	client := provider.NewRestyClient(cfg).
		SetAuthToken(webBearerToken).
		SetHeader("Accept-Language", "en")

	return &Client{
		client: client,
		cb:     provider.NewCircuitBreaker[*resty.Response](domain.ProviderTwitter, cfg.CB, logger),
		logger: logger.With(zap.String("provider", domain.ProviderTwitter)),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return domain.ProviderTwitter
}

// Objects returns the record shapes served by Twitter.
func (c *Client) Objects() map[string]domain.RecordFactory {
	return map[string]domain.RecordFactory{
		domain.ObjectTweet: func() domain.Record { return &domain.TwitterTweet{} },
		domain.ObjectUser:  func() domain.Record { return &domain.TwitterUser{} },
	}
}

// Fetch retrieves a tweet by rest id or a user by screen name.
func (c *Client) Fetch(ctx context.Context, urn domain.URN) (domain.Record, error) {
	switch urn.Object {
	case domain.ObjectTweet:
		return c.fetchTweet(ctx, urn.Identifier)
	case domain.ObjectUser:
		return c.fetchUser(ctx, urn.Identifier)
	default:
		return nil, nil
	}
}

func (c *Client) fetchTweet(ctx context.Context, restID string) (domain.Record, error) {
	var result tweetResultResponse
	ok, err := c.query(ctx, TweetResultEndpoint, map[string]any{"tweetId": restID}, &result)
	if err != nil || !ok {
		return nil, err
	}

	if result.Data.TweetResult.Result.TypeName != "Tweet" {
		c.logger.Debug("tweet not available",
			zap.String("id", restID),
			zap.String("typename", result.Data.TweetResult.Result.TypeName),
		)

		return nil, nil
	}

	tweet := result.ToDomain()
	c.logger.Info("tweet fetched",
		zap.String("id", tweet.RestID),
		zap.Int("images", len(tweet.ImageURLList)),
	)

	return tweet, nil
}

func (c *Client) fetchUser(ctx context.Context, screenName string) (domain.Record, error) {
	var result userByScreenNameResponse
	ok, err := c.query(ctx, UserByScreenNameEndpoint, map[string]any{"screen_name": screenName}, &result)
	if err != nil || !ok {
		return nil, err
	}

	if result.Data.User.Result.TypeName != "User" {
		c.logger.Debug("user not available",
			zap.String("screen_name", screenName),
			zap.String("typename", result.Data.User.Result.TypeName),
		)

		return nil, nil
	}

	user := result.Data.User.Result.ToDomain()
	c.logger.Info("twitter user fetched", zap.String("screen_name", user.ScreenName))

	return user, nil
}

// activate opens a guest session. An empty token means activation was
// refused.
func (c *Client) activate(ctx context.Context) (string, error) {
	resp, err := provider.Call(c.cb, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			Post(GuestActivateEndpoint)
	})
	if err != nil {
		return "", fmt.Errorf("activating guest session: %w", err)
	}
	if resp == nil {
		return "", nil
	}

	var token guestTokenResponse
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return "", fmt.Errorf("decoding guest token: %w", err)
	}

	return token.GuestToken, nil
}

// query runs one GraphQL query inside a fresh guest session.
func (c *Client) query(ctx context.Context, endpoint string, variables map[string]any, out any) (bool, error) {
	guestToken, err := c.activate(ctx)
	if err != nil {
		c.logger.Warn("twitter guest activation failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return false, fmt.Errorf("fetching from twitter: %w", err)
	}
	if guestToken == "" {
		c.logger.Warn("twitter refused guest activation")

		return false, nil
	}

	vars := make(map[string]any, len(defaultVariables)+len(variables))
	for k, v := range defaultVariables {
		vars[k] = v
	}
	for k, v := range variables {
		vars[k] = v
	}

	encodedVars, err := json.Marshal(vars)
	if err != nil {
		return false, fmt.Errorf("encoding variables: %w", err)
	}
	encodedFeatures, err := json.Marshal(defaultFeatures)
	if err != nil {
		return false, fmt.Errorf("encoding features: %w", err)
	}

	resp, err := provider.Call(c.cb, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("X-Guest-Token", guestToken).
			SetHeader("X-Twitter-Active-User", "yes").
			SetHeader("Cookie", "guest_id=v1%3A"+guestToken).
			SetQueryParam("variables", string(encodedVars)).
			SetQueryParam("features", string(encodedFeatures)).
			Get(endpoint)
	})
	if err != nil {
		c.logger.Warn("twitter query failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return false, fmt.Errorf("fetching from twitter: %w", err)
	}
	if resp == nil {
		return false, nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return false, fmt.Errorf("decoding twitter response: %w", err)
	}

	return true, nil
}
