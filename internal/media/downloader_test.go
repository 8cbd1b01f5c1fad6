package media

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDownloader(maxBytes int64) *Downloader {
	d := NewDownloader(DownloaderConfig{
		Timeout:   5 * time.Second,
		MaxBytes:  maxBytes,
		UserAgent: "test-agent",
	}, zap.NewNop())
	httpmock.ActivateNonDefault(d.Client().GetClient())

	return d
}

func TestDownloader_Headers(t *testing.T) {
	d := newTestDownloader(0)
	defer httpmock.DeactivateAndReset()

	var seen http.Header
	respond := func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Clone()
		return httpmock.NewBytesResponse(http.StatusOK, []byte("image-bytes")), nil
	}
	httpmock.RegisterResponder("GET", "https://pbs.twimg.com/media/a.jpg", respond)
	httpmock.RegisterResponder("GET", "https://example.com/a.jpg", respond)

	data, err := d.Download(context.Background(), "https://pbs.twimg.com/media/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
	assert.Equal(t, "https://twitter.com/", seen.Get("Referer"))
	assert.Equal(t, "test-agent", seen.Get("User-Agent"))

	_, err = d.Download(context.Background(), "https://example.com/a.jpg")
	require.NoError(t, err)
	assert.Empty(t, seen.Get("Referer"), "Unknown hosts get no referrer")
}

func TestDownloader_Status(t *testing.T) {
	d := newTestDownloader(0)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://i.pximg.net/a.jpg",
		httpmock.NewStringResponder(http.StatusForbidden, "nope"))

	_, err := d.Download(context.Background(), "https://i.pximg.net/a.jpg")
	assert.ErrorIs(t, err, ErrDownloadStatus)
}

func TestDownloader_MaxBytes(t *testing.T) {
	d := newTestDownloader(4)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://cdn.discordapp.com/big.png",
		httpmock.NewBytesResponder(http.StatusOK, []byte("12345")))
	httpmock.RegisterResponder("GET", "https://cdn.discordapp.com/small.png",
		httpmock.NewBytesResponder(http.StatusOK, []byte("1234")))

	_, err := d.Download(context.Background(), "https://cdn.discordapp.com/big.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	data, err := d.Download(context.Background(), "https://cdn.discordapp.com/small.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), data)
}

func TestReferrerFor(t *testing.T) {
	assert.Equal(t, "https://www.pixiv.net/", ReferrerFor("i.pximg.net"))
	assert.Equal(t, "https://www.tumblr.com/", ReferrerFor("64.media.tumblr.com"))
	assert.Equal(t, "https://discord.com/", ReferrerFor("MEDIA.discordapp.net"))
	assert.Empty(t, ReferrerFor("pximg.net"), "Matching is exact, not by suffix")
}
