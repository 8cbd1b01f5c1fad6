package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrNoRedirect is returned when a short link does not answer with a
// redirect.
var ErrNoRedirect = errors.New("short link did not redirect")

// RedirectResolver follows exactly one redirect hop and reports the target.
type RedirectResolver struct {
	client *resty.Client
	logger *zap.Logger
}

// NewRedirectResolver creates a resolver whose client never follows
// redirects by itself.
func NewRedirectResolver(timeout time.Duration, logger *zap.Logger) *RedirectResolver {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", SessionUserAgent()).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	return &RedirectResolver{
		client: client,
		logger: logger,
	}
}

// Client exposes the underlying HTTP client.
func (r *RedirectResolver) Client() *http.Client {
	return r.client.GetClient()
}

// Resolve returns the Location the short link points at.
func (r *RedirectResolver) Resolve(ctx context.Context, shortLink *url.URL) (*url.URL, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		Get(shortLink.String())
	if err != nil {
		return nil, fmt.Errorf("following %s: %w", shortLink, err)
	}

	location := resp.Header().Get("Location")
	if resp.StatusCode() < 300 || resp.StatusCode() >= 400 || location == "" {
		return nil, fmt.Errorf("%w: %s answered %d", ErrNoRedirect, shortLink, resp.StatusCode())
	}

	target, err := shortLink.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect target %q: %w", location, err)
	}

	r.logger.Debug("short link resolved",
		zap.String("from", shortLink.String()),
		zap.String("to", target.String()),
	)

	return target, nil
}
