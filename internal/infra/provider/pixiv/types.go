package pixiv

import (
	"encoding/json"
	"strconv"

	"github.com/synzr/torobooru/internal/domain"
)

// Public page URLs.
const (
	ArtworkPageURL = "https://www.pixiv.net/artworks/"
	UserPageURL    = "https://www.pixiv.net/users/"
)

// ajaxResponse is the envelope of every pixiv ajax endpoint.
// Body is an empty array when Error is set.
type ajaxResponse struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// illustBody is the body of /ajax/illust/{id}.
type illustBody struct {
	IllustID      string `json:"illustId"`
	IllustTitle   string `json:"illustTitle"`
	IllustComment string `json:"illustComment"`
	UserID        string `json:"userId"`
	URLs          struct {
		Mini     string `json:"mini"`
		Thumb    string `json:"thumb"`
		Small    string `json:"small"`
		Regular  string `json:"regular"`
		Original string `json:"original"`
	} `json:"urls"`
}

// userBody is the body of /ajax/user/{id}.
type userBody struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	ImageBig  string `json:"imageBig"`
	Following int    `json:"following"`
	// Social is an empty array when the user has no links and an object otherwise.
	Social socialLinks `json:"social"`
}

type socialLinks map[string]struct {
	URL string `json:"url"`
}

// UnmarshalJSON accepts both [] and {}.
func (s *socialLinks) UnmarshalJSON(data []byte) error {
	if string(data) == "[]" || string(data) == "null" {
		*s = nil
		return nil
	}

	var m map[string]struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = m

	return nil
}

// ToDomain converts the illust body to domain.PixivArtwork.
func (b *illustBody) ToDomain() *domain.PixivArtwork {
	return &domain.PixivArtwork{
		ArtworkID:     b.IllustID,
		FullURL:       ArtworkPageURL + b.IllustID,
		Title:         b.IllustTitle,
		Comment:       b.IllustComment,
		HQImageURL:    b.URLs.Regular,
		AuthorID:      b.UserID,
		AuthorFullURL: UserPageURL + b.UserID,
	}
}

// ToDomain converts the user body to domain.PixivUser.
func (b *userBody) ToDomain() *domain.PixivUser {
	user := &domain.PixivUser{
		UserID:         b.UserID,
		FullURL:        UserPageURL + b.UserID,
		Name:           b.Name,
		HQAvatarURL:    b.ImageBig,
		FollowingCount: b.Following,
	}

	if twitter, ok := b.Social["twitter"]; ok && twitter.URL != "" {
		u := twitter.URL
		user.TwitterAccountURL = &u
	}

	return user
}

func isNumericID(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
