// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"strings"

	"github.com/synzr/torobooru/internal/domain"
)

// DefaultPageSize is used when page_size is omitted.
const DefaultPageSize = 20

// ContentsQuery represents the query parameters of a catalog page request.
type ContentsQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	Required string `query:"required" validate:"max=1000"`
	Blocked  string `query:"blocked" validate:"max=1000"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
}

// ToViewSettings converts the query to domain.ViewSettings. Pages below 1
// are clamped to 1. A label listed as both required and blocked is blocked.
func (q *ContentsQuery) ToViewSettings() domain.ViewSettings {
	settings := domain.DefaultViewSettings()
	settings.PageSize = DefaultPageSize

	if q.Page > 1 {
		settings.PageIndex = q.Page
	}
	if q.PageSize > 0 {
		settings.PageSize = q.PageSize
	}
	if q.Order != "" {
		settings.OrderBy = domain.SortOrder(q.Order)
	}

	for _, label := range splitTags(q.Required) {
		settings.Tags[label] = domain.TagRequired
	}
	for _, label := range splitTags(q.Blocked) {
		settings.Tags[label] = domain.TagBlocked
	}

	return settings
}

func splitTags(list string) []string {
	var labels []string
	for _, label := range strings.Split(list, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}

	return labels
}

// ContentInput is one catalog row in an ingestion request. Tags may not
// contain commas, which separate labels in the required and blocked filters.
type ContentInput struct {
	SubmissionURN string   `json:"submission_urn" validate:"omitempty,urn,max=512"`
	SourceURN     string   `json:"source_urn" validate:"omitempty,urn,max=512"`
	OriginURN     string   `json:"origin_urn" validate:"omitempty,urn,max=512"`
	MediaURL      string   `json:"media_url" validate:"required,url,max=2048"`
	Tags          []string `json:"tags" validate:"max=64,dive,required,max=64,excludes=0x2C"`
}

// ToDomain converts the input to a domain.Content submitted now.
func (in ContentInput) ToDomain() *domain.Content {
	return domain.NewContent(in.SubmissionURN, in.SourceURN, in.OriginURN, in.MediaURL, in.Tags)
}

// AddContentsRequest represents the body of a catalog ingestion request.
type AddContentsRequest struct {
	Contents     []ContentInput `json:"contents" validate:"required,min=1,max=500,dive"`
	ProcessMedia bool           `json:"process_media"`
}

// ToDomain converts every input row.
func (r *AddContentsRequest) ToDomain() []*domain.Content {
	contents := make([]*domain.Content, len(r.Contents))
	for i, in := range r.Contents {
		contents[i] = in.ToDomain()
	}

	return contents
}

// ResolveExternalDataRequest represents the body of a resolve request.
type ResolveExternalDataRequest struct {
	URNs         []string `json:"urns" validate:"required,min=1,max=100,dive,required,max=512"`
	ForceRefresh bool     `json:"force_refresh"`
}

// ResolveLinksRequest represents the body of a link resolution request.
type ResolveLinksRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}
