package domain

import (
	"errors"
	"fmt"
	"strings"
)

// URNPrefix starts every serialized URN.
const URNPrefix = "urn:"

// Known providers.
const (
	ProviderTwitter = "twitter"
	ProviderTumblr  = "tumblr"
	ProviderPixiv   = "pixiv"
	ProviderDiscord = "discord"
)

// Known object types.
const (
	ObjectTweet   = "tweet"
	ObjectUser    = "user"
	ObjectBlog    = "blog"
	ObjectPost    = "post"
	ObjectArtwork = "artwork"
	ObjectMessage = "message"
)

// Extra field names.
const (
	ExtraBlogName  = "blog_name"
	ExtraChannelID = "channel_id"
)

var (
	// ErrNotURN is returned when the text does not start with URNPrefix.
	ErrNotURN = errors.New("not a urn")
	// ErrMalformedURN is returned when a URN has the wrong number of fields.
	ErrMalformedURN = errors.New("malformed urn")
)

// extraFieldLayouts lists the positional extra fields that sit between the
// object type and the identifier for a provider/object pair.
var extraFieldLayouts = map[string][]string{
	ProviderTumblr + ":" + ObjectPost:     {ExtraBlogName},
	ProviderDiscord + ":" + ObjectMessage: {ExtraChannelID},
}

// URN identifies one external object.
//
// Serialized form: urn:<provider>:<object>[:<extra>...]:<identifier>
type URN struct {
	Provider   string            `json:"provider"`
	Object     string            `json:"object"`
	Identifier string            `json:"identifier"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// NewURN builds a URN without extra fields.
func NewURN(provider, object, identifier string) URN {
	return URN{Provider: provider, Object: object, Identifier: identifier}
}

// NewTumblrPostURN builds urn:tumblr:post:<blog>:<id>.
func NewTumblrPostURN(blogName, postID string) URN {
	return URN{
		Provider:   ProviderTumblr,
		Object:     ObjectPost,
		Identifier: postID,
		Extra:      map[string]string{ExtraBlogName: blogName},
	}
}

// NewDiscordMessageURN builds urn:discord:message:<channel>:<id>.
func NewDiscordMessageURN(channelID, messageID string) URN {
	return URN{
		Provider:   ProviderDiscord,
		Object:     ObjectMessage,
		Identifier: messageID,
		Extra:      map[string]string{ExtraChannelID: channelID},
	}
}

// ParseURN parses a serialized URN.
// It returns ErrNotURN when the prefix is missing and ErrMalformedURN when the
// field count does not match the provider/object layout.
func ParseURN(text string) (URN, error) {
	if !strings.HasPrefix(text, URNPrefix) {
		return URN{}, ErrNotURN
	}

	elements := strings.Split(strings.TrimPrefix(text, URNPrefix), ":")
	if len(elements) < 3 {
		return URN{}, fmt.Errorf("%w: %q", ErrMalformedURN, text)
	}

	layout := extraFieldLayouts[elements[0]+":"+elements[1]]
	if len(elements) != 3+len(layout) {
		return URN{}, fmt.Errorf("%w: %q has %d fields, want %d",
			ErrMalformedURN, text, len(elements), 3+len(layout))
	}

	for _, element := range elements {
		if element == "" {
			return URN{}, fmt.Errorf("%w: %q has an empty field", ErrMalformedURN, text)
		}
	}

	urn := URN{
		Provider:   elements[0],
		Object:     elements[1],
		Identifier: elements[len(elements)-1],
	}

	if len(layout) > 0 {
		urn.Extra = make(map[string]string, len(layout))
		for i, name := range layout {
			urn.Extra[name] = elements[2+i]
		}
	}

	return urn, nil
}

// String serializes the URN.
func (u URN) String() string {
	var sb strings.Builder
	sb.WriteString(URNPrefix)
	sb.WriteString(u.Provider)
	sb.WriteByte(':')
	sb.WriteString(u.Object)

	for _, name := range extraFieldLayouts[u.Provider+":"+u.Object] {
		sb.WriteByte(':')
		sb.WriteString(u.Extra[name])
	}

	sb.WriteByte(':')
	sb.WriteString(u.Identifier)

	return sb.String()
}

// ExtraField returns a secondary key, or "" when absent.
func (u URN) ExtraField(name string) string {
	if u.Extra == nil {
		return ""
	}

	return u.Extra[name]
}
