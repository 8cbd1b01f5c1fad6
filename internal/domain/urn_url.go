package domain

import (
	"net/url"
	"strings"
)

// TumblrShortLinkHost serves short links that redirect once to a Tumblr URL.
const TumblrShortLinkHost = "tmblr.co"

// twitterHosts covers twitter.com, x.com and the front-end mirrors people
// paste instead.
var twitterHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"x.com":              true,
	"www.x.com":          true,
	"mobile.x.com":       true,
	"fxtwitter.com":      true,
	"vxtwitter.com":      true,
	"fixupx.com":         true,
	"fixvx.com":          true,
	"nitter.net":         true,
}

var pixivHosts = map[string]bool{
	"pixiv.net":     true,
	"www.pixiv.net": true,
}

// IsShortLink reports whether the URL must be followed one hop before it can
// be mapped to a URN.
func IsShortLink(u *url.URL) bool {
	return strings.EqualFold(u.Hostname(), TumblrShortLinkHost)
}

// URNFromURL maps a URL on a known host to a URN string.
// It returns false for unknown hosts, unresolvable paths and short links.
func URNFromURL(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	segments := pathSegments(u.Path)

	switch {
	case twitterHosts[host]:
		return twitterURN(segments)
	case host == "tumblr.com" || host == "www.tumblr.com":
		if len(segments) == 0 {
			return "", false
		}
		return tumblrURN(segments[0], segments[1:])
	case strings.HasSuffix(host, ".tumblr.com"):
		blogName := strings.TrimSuffix(host, ".tumblr.com")
		if blogName == "www" || strings.Contains(blogName, ".") {
			return "", false
		}
		return tumblrURN(blogName, segments)
	case pixivHosts[host]:
		return pixivURN(segments)
	default:
		return "", false
	}
}

func twitterURN(segments []string) (string, bool) {
	for i, segment := range segments {
		if segment == "status" || segment == "statuses" {
			if i+1 < len(segments) && isField(segments[i+1]) {
				return NewURN(ProviderTwitter, ObjectTweet, segments[i+1]).String(), true
			}
			return "", false
		}
	}

	if len(segments) == 0 || segments[0] == "i" || !isField(segments[0]) {
		return "", false
	}

	return NewURN(ProviderTwitter, ObjectUser, segments[0]).String(), true
}

func tumblrURN(blogName string, rest []string) (string, bool) {
	if !isField(blogName) {
		return "", false
	}

	for _, segment := range rest {
		if isNumeric(segment) {
			return NewTumblrPostURN(blogName, segment).String(), true
		}
	}

	return NewURN(ProviderTumblr, ObjectBlog, blogName).String(), true
}

func pixivURN(segments []string) (string, bool) {
	for i := 0; i+1 < len(segments); i++ {
		if !isNumeric(segments[i+1]) {
			continue
		}

		switch segments[i] {
		case "artworks":
			return NewURN(ProviderPixiv, ObjectArtwork, segments[i+1]).String(), true
		case "users":
			return NewURN(ProviderPixiv, ObjectUser, segments[i+1]).String(), true
		}
	}

	return "", false
}

func pathSegments(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}

	return segments
}

// isField reports whether s can stand as a single URN field.
func isField(s string) bool {
	return s != "" && !strings.Contains(s, ":")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
