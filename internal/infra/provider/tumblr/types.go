package tumblr

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/synzr/torobooru/internal/domain"
)

const initialStateMarker = "window['___INITIAL_STATE___'] = "

// ErrNoInitialState is returned when a page carries no embedded state.
var ErrNoInitialState = errors.New("tumblr page has no initial state")

// undefinedLiterals turns the JavaScript undefined values the page embeds
// into JSON nulls.
var undefinedLiterals = strings.NewReplacer(
	":undefined", ":null",
	",undefined", ",null",
	"[undefined", "[null",
)

// initialState is the part of the page state the client reads.
type initialState struct {
	Queries struct {
		Queries []struct {
			State struct {
				Data json.RawMessage `json:"data"`
			} `json:"state"`
		} `json:"queries"`
	} `json:"queries"`

	PeeprRoute struct {
		InitialTimeline struct {
			Objects []postObject `json:"objects"`
		} `json:"initialTimeline"`
	} `json:"PeeprRoute"`
}

type blogObject struct {
	Name        string `json:"name"`
	BlogViewURL string `json:"blogViewUrl"`
	Title       string `json:"title"`
	Avatar      []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"avatar"`
}

type postObject struct {
	IDString string `json:"idString"`
	PostURL  string `json:"postUrl"`
	BlogName string `json:"blogName"`
	Blog     struct {
		BlogViewURL string `json:"blogViewUrl"`
	} `json:"blog"`
	Content []struct {
		Type  string `json:"type"`
		Media []struct {
			URL string `json:"url"`
		} `json:"media"`
	} `json:"content"`
}

// parseInitialState extracts the state object assigned in the page's
// bootstrap script.
func parseInitialState(page string) (*initialState, error) {
	_, rest, found := strings.Cut(page, initialStateMarker)
	if !found {
		return nil, ErrNoInitialState
	}

	raw, _, found := strings.Cut(rest, "};")
	if !found {
		return nil, ErrNoInitialState
	}

	var state initialState
	if err := json.Unmarshal([]byte(undefinedLiterals.Replace(raw)+"}"), &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// blog returns the blog object from the last query of a blog page.
func (s *initialState) blog() (*blogObject, error) {
	queries := s.Queries.Queries
	if len(queries) == 0 {
		return nil, nil
	}

	var blog blogObject
	if err := json.Unmarshal(queries[len(queries)-1].State.Data, &blog); err != nil {
		return nil, err
	}
	if blog.Name == "" {
		return nil, nil
	}

	return &blog, nil
}

// post returns the first timeline object of a post page.
func (s *initialState) post() *postObject {
	objects := s.PeeprRoute.InitialTimeline.Objects
	if len(objects) == 0 {
		return nil
	}

	return &objects[0]
}

// ToDomain converts the blog object to domain.TumblrBlog.
// The first avatar is the largest one.
func (b *blogObject) ToDomain() *domain.TumblrBlog {
	blog := &domain.TumblrBlog{
		Name:  b.Name,
		URL:   b.BlogViewURL,
		Title: b.Title,
	}
	if len(b.Avatar) > 0 {
		blog.HQAvatarURL = b.Avatar[0].URL
	}

	return blog
}

// ToDomain converts the post object to domain.TumblrPost, keeping only image
// blocks.
func (p *postObject) ToDomain() *domain.TumblrPost {
	images := make([]string, 0, len(p.Content))
	for _, block := range p.Content {
		if block.Type != "image" || len(block.Media) == 0 {
			continue
		}
		images = append(images, block.Media[0].URL)
	}

	return &domain.TumblrPost{
		PostID:   p.IDString,
		PostURL:  p.PostURL,
		Images:   images,
		BlogName: p.BlogName,
		BlogURL:  p.Blog.BlogViewURL,
	}
}
