package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/infra/provider"
)

// HashtagPrefix marks a tag word in a message.
const HashtagPrefix = "~"

// RedirectFollower reports where a short link points.
type RedirectFollower interface {
	Resolve(ctx context.Context, shortLink *url.URL) (*url.URL, error)
}

// LinkService maps pasted links to URNs.
type LinkService struct {
	redirects RedirectFollower
	logger    *zap.Logger
}

// NewLinkService creates a new LinkService.
func NewLinkService(redirects RedirectFollower, logger *zap.Logger) *LinkService {
	return &LinkService{
		redirects: redirects,
		logger:    logger,
	}
}

// URNFromURL returns the URN for rawURL, or "" when the link is not on a
// known host or cannot be mapped. Short links are followed exactly one hop.
// Only transport failures while following a short link are returned as errors.
func (s *LinkService) URNFromURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", nil
	}

	if domain.IsShortLink(u) {
		target, err := s.redirects.Resolve(ctx, u)
		if errors.Is(err, provider.ErrNoRedirect) {
			s.logger.Debug("short link did not redirect", zap.String("url", rawURL))
			return "", nil
		}
		if err != nil {
			return "", err
		}
		u = target

		if domain.IsShortLink(u) {
			return "", nil
		}
	}

	urn, ok := domain.URNFromURL(u)
	if !ok {
		return "", nil
	}

	return urn, nil
}

// URNsFromText maps every http(s) word of text to a URN, in order, skipping
// links that do not map and repeats.
func (s *LinkService) URNsFromText(ctx context.Context, text string) ([]string, error) {
	urns := []string{}
	seen := map[string]bool{}

	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "http://") && !strings.HasPrefix(word, "https://") {
			continue
		}

		urn, err := s.URNFromURL(ctx, word)
		if err != nil {
			return nil, err
		}
		if urn == "" || seen[urn] {
			continue
		}

		seen[urn] = true
		urns = append(urns, urn)
	}

	return urns, nil
}

// HashtagsFromText returns the words of text that start with HashtagPrefix,
// without the prefix.
func HashtagsFromText(text string) []string {
	tags := []string{}
	for _, word := range strings.Fields(text) {
		if tag, ok := strings.CutPrefix(word, HashtagPrefix); ok && tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}
