package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/synzr/torobooru/internal/domain"

	"gorm.io/datatypes"
)

// ContentModel is the GORM model for the contents table.
type ContentModel struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	SubmissionURN string  `gorm:"type:text;not null"`
	SourceURN     string  `gorm:"type:text;not null"`
	OriginURN     string  `gorm:"type:text;not null"`
	MediaURL      string  `gorm:"type:text;not null"`
	ThumbnailURL  *string `gorm:"type:text"`

	// JSON array of labels
	Tags datatypes.JSON `gorm:"type:jsonb;not null"`

	SubmittedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for ContentModel.
func (ContentModel) TableName() string {
	return "contents"
}

// ToDomain converts ContentModel to domain.Content.
func (m *ContentModel) ToDomain() (*domain.Content, error) {
	tags := []string{}
	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &tags); err != nil {
			return nil, fmt.Errorf("decoding tags of content %d: %w", m.ID, err)
		}
	}

	return &domain.Content{
		ID:            m.ID,
		SubmissionURN: m.SubmissionURN,
		SourceURN:     m.SourceURN,
		OriginURN:     m.OriginURN,
		MediaURL:      m.MediaURL,
		ThumbnailURL:  m.ThumbnailURL,
		Tags:          tags,
		SubmittedAt:   m.SubmittedAt,
	}, nil
}

// FromDomain creates a ContentModel from domain.Content.
func FromDomain(c *domain.Content) (*ContentModel, error) {
	labels := c.Tags
	if labels == nil {
		labels = []string{}
	}

	tags, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	submittedAt := c.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	return &ContentModel{
		ID:            c.ID,
		SubmissionURN: c.SubmissionURN,
		SourceURN:     c.SourceURN,
		OriginURN:     c.OriginURN,
		MediaURL:      c.MediaURL,
		ThumbnailURL:  c.ThumbnailURL,
		Tags:          datatypes.JSON(tags),
		SubmittedAt:   submittedAt,
	}, nil
}

// FromDomainSlice converts a slice of domain.Content to ContentModels.
func FromDomainSlice(contents []*domain.Content) ([]*ContentModel, error) {
	models := make([]*ContentModel, len(contents))
	for i, c := range contents {
		m, err := FromDomain(c)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}

	return models, nil
}

// ExternalDataModel is the GORM model for the external_data table.
type ExternalDataModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	URN       string         `gorm:"type:text;not null;uniqueIndex"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
}

// TableName returns the table name for ExternalDataModel.
func (ExternalDataModel) TableName() string {
	return "external_data"
}

// ToDomain converts ExternalDataModel to its stored domain form.
func (m *ExternalDataModel) ToDomain() domain.StoredExternalData {
	return domain.StoredExternalData{
		URN:     m.URN,
		Payload: []byte(m.Payload),
	}
}
