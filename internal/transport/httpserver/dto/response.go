package dto

import (
	"time"

	"github.com/synzr/torobooru/internal/domain"
)

// ContentResponse represents a single catalog row in the response.
type ContentResponse struct {
	ID            int64    `json:"id"`
	SubmissionURN string   `json:"submission_urn"`
	SourceURN     string   `json:"source_urn"`
	OriginURN     string   `json:"origin_urn"`
	MediaURL      string   `json:"media_url"`
	ThumbnailURL  *string  `json:"thumbnail_url"`
	Tags          []string `json:"tags"`
	SubmittedAt   string   `json:"submitted_at"`
}

// FromDomainContent converts domain.Content to ContentResponse.
func FromDomainContent(c *domain.Content) ContentResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}

	return ContentResponse{
		ID:            c.ID,
		SubmissionURN: c.SubmissionURN,
		SourceURN:     c.SourceURN,
		OriginURN:     c.OriginURN,
		MediaURL:      c.MediaURL,
		ThumbnailURL:  c.ThumbnailURL,
		Tags:          tags,
		SubmittedAt:   c.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// ContentsResponse represents one catalog page.
type ContentsResponse struct {
	Results  []ContentResponse `json:"results"`
	HasMore  bool              `json:"has_more"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// FromViewResult converts a page of contents to ContentsResponse.
func FromViewResult(result domain.ViewResult[*domain.Content], settings domain.ViewSettings) ContentsResponse {
	contents := make([]ContentResponse, len(result.Results))
	for i, c := range result.Results {
		contents[i] = FromDomainContent(c)
	}

	return ContentsResponse{
		Results:  contents,
		HasMore:  result.HasMore,
		Page:     settings.PageIndex,
		PageSize: settings.PageSize,
	}
}

// AddContentsResponse reports how many rows were inserted.
type AddContentsResponse struct {
	Inserted int64 `json:"inserted"`
}

// ExternalDataResponse is one resolved URN.
type ExternalDataResponse struct {
	URN  string        `json:"urn"`
	Kind string        `json:"kind"`
	Data domain.Record `json:"data"`
}

// FromExternalData converts the resolver output. Unresolved URNs stay as
// null entries.
func FromExternalData(resolved map[string]*domain.ExternalData) map[string]*ExternalDataResponse {
	out := make(map[string]*ExternalDataResponse, len(resolved))
	for urn, data := range resolved {
		if data == nil {
			out[urn] = nil
			continue
		}

		out[urn] = &ExternalDataResponse{
			URN:  data.URNString,
			Kind: data.Record.Kind(),
			Data: data.Record,
		}
	}

	return out
}

// ResolveLinksResponse lists what was found in a message.
type ResolveLinksResponse struct {
	URNs     []string `json:"urns"`
	Hashtags []string `json:"hashtags"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
