package domain

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURN_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		want URN
	}{
		{
			name: "twitter tweet",
			text: "urn:twitter:tweet:1234567890",
			want: NewURN(ProviderTwitter, ObjectTweet, "1234567890"),
		},
		{
			name: "pixiv user",
			text: "urn:pixiv:user:42",
			want: NewURN(ProviderPixiv, ObjectUser, "42"),
		},
		{
			name: "tumblr post carries blog name",
			text: "urn:tumblr:post:staff:7001",
			want: NewTumblrPostURN("staff", "7001"),
		},
		{
			name: "discord message carries channel id",
			text: "urn:discord:message:111:222",
			want: NewDiscordMessageURN("111", "222"),
		},
		{
			name: "unknown provider uses base layout",
			text: "urn:mastodon:toot:99",
			want: NewURN("mastodon", "toot", "99"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURN(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, got.String())
		})
	}
}

func TestParseURN_NotURN(t *testing.T) {
	for _, text := range []string{"", "twitter:tweet:1", "https://x.com/a/status/1", "URN:twitter:tweet:1"} {
		_, err := ParseURN(text)
		assert.ErrorIs(t, err, ErrNotURN, text)
	}
}

func TestParseURN_Malformed(t *testing.T) {
	tests := []string{
		"urn:",
		"urn:twitter:tweet",
		"urn:twitter:tweet:1:2",
		"urn:tumblr:post:7001",
		"urn:discord:message:222",
		"urn:twitter::1",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := ParseURN(text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedURN))
			assert.False(t, errors.Is(err, ErrNotURN))
		})
	}
}

func TestURN_ExtraField(t *testing.T) {
	urn := NewTumblrPostURN("staff", "1")
	assert.Equal(t, "staff", urn.ExtraField(ExtraBlogName))
	assert.Equal(t, "", urn.ExtraField(ExtraChannelID))
	assert.Equal(t, "", NewURN(ProviderPixiv, ObjectUser, "1").ExtraField(ExtraBlogName))
}

func TestURNFromURL(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://twitter.com/someone/status/1790000000000000000", "urn:twitter:tweet:1790000000000000000", true},
		{"https://x.com/someone/status/1790000000000000000/photo/1", "urn:twitter:tweet:1790000000000000000", true},
		{"https://fxtwitter.com/someone/status/55", "urn:twitter:tweet:55", true},
		{"https://x.com/someone", "urn:twitter:user:someone", true},
		{"https://x.com/i/bookmarks", "", false},
		{"https://x.com/", "", false},
		{"https://twitter.com/a:b", "", false},
		{"https://x.com/someone/status/1:2", "", false},
		{"https://x.com/a%3Ab", "", false},
		{"https://staff.tumblr.com/", "urn:tumblr:blog:staff", true},
		{"https://staff.tumblr.com/post/7001/some-slug", "urn:tumblr:post:staff:7001", true},
		{"https://www.tumblr.com/staff", "urn:tumblr:blog:staff", true},
		{"https://www.tumblr.com/staff/7001", "urn:tumblr:post:staff:7001", true},
		{"https://www.tumblr.com/", "", false},
		{"https://www.tumblr.com/a:b/7001", "", false},
		{"https://www.pixiv.net/en/artworks/118000000", "urn:pixiv:artwork:118000000", true},
		{"https://www.pixiv.net/users/42", "urn:pixiv:user:42", true},
		{"https://www.pixiv.net/ranking.php", "", false},
		{"https://tmblr.co/ZabcDe", "", false},
		{"https://example.com/status/1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)

			got, ok := URNFromURL(u)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				_, err := ParseURN(got)
				assert.NoError(t, err, "Mapped URN should parse")
			}
		})
	}
}

func TestIsShortLink(t *testing.T) {
	short, _ := url.Parse("https://tmblr.co/ZabcDe")
	long, _ := url.Parse("https://staff.tumblr.com/post/1")

	assert.True(t, IsShortLink(short))
	assert.False(t, IsShortLink(long))
}
