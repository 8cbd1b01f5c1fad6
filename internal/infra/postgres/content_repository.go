package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/synzr/torobooru/internal/domain"
)

// ContentRepository implements domain.ContentRepository using PostgreSQL.
type ContentRepository struct {
	db *gorm.DB
}

var _ domain.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository creates a new PostgreSQL content repository.
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Query returns up to settings.Limit() rows matching the tag filter.
func (r *ContentRepository) Query(ctx context.Context, settings domain.ViewSettings) ([]*domain.Content, error) {
	if err := settings.Check(); err != nil {
		return nil, err
	}

	where, args, err := TagFilter(settings)
	if err != nil {
		return nil, err
	}

	var models []ContentModel
	err = r.db.WithContext(ctx).
		Where(where, args...).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "submitted_at"}, Desc: settings.Descending()},
			{Column: clause.Column{Name: "id"}, Desc: settings.Descending()},
		}}).
		Offset(settings.Offset()).
		Limit(settings.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}

	contents := make([]*domain.Content, len(models))
	for i := range models {
		c, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		contents[i] = c
	}

	return contents, nil
}

// InsertBatch appends every row in one INSERT and writes the assigned IDs
// back into contents.
func (r *ContentRepository) InsertBatch(ctx context.Context, contents []*domain.Content) (int64, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	models, err := FromDomainSlice(contents)
	if err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).Create(&models)
	if result.Error != nil {
		return 0, fmt.Errorf("inserting contents: %w", result.Error)
	}

	for i, m := range models {
		contents[i].ID = m.ID
		contents[i].SubmittedAt = m.SubmittedAt
	}

	return result.RowsAffected, nil
}

// TagFilter compiles the tag classes of settings into a WHERE fragment:
//
//	(<required_1> AND ... AND <required_n>) AND NOT (<blocked_1> AND ... AND <blocked_m>)
//
// An empty required list is TRUE and an empty blocked list is FALSE, so the
// filter matches every row when no tags are given. A row is excluded only
// when it carries every blocked tag at once.
func TagFilter(settings domain.ViewSettings) (string, []any, error) {
	required, requiredArgs, err := containsAll(settings.RequiredTags(), "TRUE")
	if err != nil {
		return "", nil, err
	}

	blocked, blockedArgs, err := containsAll(settings.BlockedTags(), "FALSE")
	if err != nil {
		return "", nil, err
	}

	where := "(" + required + ") AND NOT (" + blocked + ")"

	return where, append(requiredArgs, blockedArgs...), nil
}

func containsAll(labels []string, empty string) (string, []any, error) {
	if len(labels) == 0 {
		return empty, nil, nil
	}

	terms := make([]string, len(labels))
	args := make([]any, len(labels))
	for i, label := range labels {
		element, err := json.Marshal([]string{label})
		if err != nil {
			return "", nil, fmt.Errorf("encoding tag %q: %w", label, err)
		}

		terms[i] = "tags @> ?::jsonb"
		args[i] = string(element)
	}

	return strings.Join(terms, " AND "), args, nil
}
