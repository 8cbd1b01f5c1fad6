// Package media turns source images into content-addressed JPEG derivatives
// and uploads them to the blob store.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/infra/provider"
)

var (
	// ErrDownloadStatus is returned when the image host answers with a non-2xx status.
	ErrDownloadStatus = errors.New("unexpected download status")
	// ErrTooLarge is returned when an image exceeds the configured size limit.
	ErrTooLarge = errors.New("image too large")
)

// referrers maps CDN hosts, matched exactly, to the Referer they expect.
var referrers = map[string]string{
	"pbs.twimg.com":        "https://twitter.com/",
	"i.pximg.net":          "https://www.pixiv.net/",
	"64.media.tumblr.com":  "https://www.tumblr.com/",
	"media.discordapp.net": "https://discord.com/",
	"cdn.discordapp.com":   "https://discord.com/",
}

// ReferrerFor returns the Referer sent to host, or "" when none is.
func ReferrerFor(host string) string {
	return referrers[strings.ToLower(host)]
}

// DownloaderConfig holds image download settings.
type DownloaderConfig struct {
	Timeout   time.Duration
	MaxBytes  int64  // 0 means unlimited
	UserAgent string // empty uses the session user agent
}

// Downloader fetches whole images into memory.
type Downloader struct {
	client   *resty.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg DownloaderConfig, logger *zap.Logger) *Downloader {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = provider.SessionUserAgent()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetDoNotParseResponse(true)

	return &Downloader{
		client:   client,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// Client returns the underlying resty client.
func (d *Downloader) Client() *resty.Client {
	return d.client
}

// Download reads the image at rawURL.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing image url: %w", err)
	}

	req := d.client.R().SetContext(ctx)
	if referrer := ReferrerFor(u.Hostname()); referrer != "" {
		req.SetHeader("Referer", referrer)
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}

	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w %d from %s", ErrDownloadStatus, resp.StatusCode(), rawURL)
	}

	var reader io.Reader = body
	if d.maxBytes > 0 {
		reader = io.LimitReader(body, d.maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, d.maxBytes)
	}

	d.logger.Debug("image downloaded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)),
	)

	return data, nil
}
