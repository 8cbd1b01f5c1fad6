// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// Content is a catalog row.
// It is built by the caller with raw URLs, rewritten once by media
// processing and then inserted. It is never updated afterwards.
type Content struct {
	ID            int64  `json:"id"`             // Store-assigned
	SubmissionURN string `json:"submission_urn"` // Who submitted, e.g. a Discord message
	SourceURN     string `json:"source_urn"`     // Canonical external content
	OriginURN     string `json:"origin_urn"`     // Root origin, e.g. the first author

	MediaURL     string  `json:"media_url"`
	ThumbnailURL *string `json:"thumbnail_url"` // nil until media is processed

	// Order is irrelevant and duplicates are not rejected here.
	Tags []string `json:"tags"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// NewContent creates a Content submitted now.
func NewContent(submissionURN, sourceURN, originURN, mediaURL string, tags []string) *Content {
	if tags == nil {
		tags = []string{}
	}

	return &Content{
		SubmissionURN: submissionURN,
		SourceURN:     sourceURN,
		OriginURN:     originURN,
		MediaURL:      mediaURL,
		Tags:          tags,
		SubmittedAt:   time.Now().UTC(),
	}
}

// HasThumbnail reports whether media processing already ran for the row.
func (c *Content) HasThumbnail() bool {
	return c.ThumbnailURL != nil && *c.ThumbnailURL != ""
}

// HasTag reports whether label is among the row's tags.
func (c *Content) HasTag(label string) bool {
	for _, t := range c.Tags {
		if t == label {
			return true
		}
	}

	return false
}
