package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/infra/provider"
)

// fakeRedirects answers from a fixed table of short link -> target.
type fakeRedirects struct {
	targets map[string]string
	calls   int
	err     error
}

func (f *fakeRedirects) Resolve(_ context.Context, shortLink *url.URL) (*url.URL, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	target, ok := f.targets[shortLink.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrNoRedirect, shortLink)
	}

	return url.Parse(target)
}

func TestLinkService_URNFromURL(t *testing.T) {
	redirects := &fakeRedirects{targets: map[string]string{
		"https://tmblr.co/ZaBc": "https://staff.tumblr.com/post/123456/some-slug",
		"https://tmblr.co/Loop": "https://tmblr.co/ZaBc",
	}}
	svc := NewLinkService(redirects, zap.NewNop())

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"tweet", "https://twitter.com/someone/status/42", "urn:twitter:tweet:42"},
		{"x tweet with photo suffix", "https://x.com/someone/status/42/photo/1", "urn:twitter:tweet:42"},
		{"twitter user", "https://twitter.com/someone", "urn:twitter:user:someone"},
		{"twitter internal path", "https://twitter.com/i/bookmarks", ""},
		{"tumblr subdomain post", "https://staff.tumblr.com/post/99", "urn:tumblr:post:staff:99"},
		{"tumblr path post", "https://www.tumblr.com/staff/99/slug", "urn:tumblr:post:staff:99"},
		{"tumblr blog", "https://staff.tumblr.com/", "urn:tumblr:blog:staff"},
		{"pixiv artwork", "https://www.pixiv.net/en/artworks/1001", "urn:pixiv:artwork:1001"},
		{"pixiv user", "https://www.pixiv.net/users/77", "urn:pixiv:user:77"},
		{"pixiv unknown path", "https://www.pixiv.net/ranking.php", ""},
		{"unknown host", "https://example.com/status/1", ""},
		{"short link", "https://tmblr.co/ZaBc", "urn:tumblr:post:staff:123456"},
		{"short link to short link", "https://tmblr.co/Loop", ""},
		{"short link without redirect", "https://tmblr.co/Missing", ""},
		{"not a url", "::", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.URNFromURL(context.Background(), tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkService_ShortLinkFollowedOnce(t *testing.T) {
	redirects := &fakeRedirects{targets: map[string]string{
		"https://tmblr.co/Loop": "https://tmblr.co/ZaBc",
	}}
	svc := NewLinkService(redirects, zap.NewNop())

	_, err := svc.URNFromURL(context.Background(), "https://tmblr.co/Loop")
	require.NoError(t, err)
	assert.Equal(t, 1, redirects.calls)
}

func TestLinkService_TransportError(t *testing.T) {
	svc := NewLinkService(&fakeRedirects{err: errors.New("dial tcp: timeout")}, zap.NewNop())

	_, err := svc.URNFromURL(context.Background(), "https://tmblr.co/ZaBc")
	assert.ErrorContains(t, err, "timeout")
}

func TestLinkService_URNsFromText(t *testing.T) {
	svc := NewLinkService(&fakeRedirects{}, zap.NewNop())

	text := "look ~cat https://twitter.com/a/status/1 and https://example.com/x " +
		"www.pixiv.net/artworks/5 https://www.pixiv.net/artworks/5 https://twitter.com/a/status/1"

	urns, err := svc.URNsFromText(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:twitter:tweet:1", "urn:pixiv:artwork:5"}, urns)
}

func TestHashtagsFromText(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"~cat ~dog https://x.com", []string{"cat", "dog"}},
		{"no tags here", []string{}},
		{"~ alone ~", []string{}},
		{"  ~spaced\t~out\n", []string{"spaced", "out"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HashtagsFromText(tt.text), tt.text)
	}
}
