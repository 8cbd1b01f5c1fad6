package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/synzr/torobooru/internal/domain"
)

// ExternalDataRepository implements domain.ExternalDataRepository using PostgreSQL.
type ExternalDataRepository struct {
	db *gorm.DB
}

var _ domain.ExternalDataRepository = (*ExternalDataRepository)(nil)

// NewExternalDataRepository creates a new PostgreSQL external-data repository.
func NewExternalDataRepository(db *gorm.DB) *ExternalDataRepository {
	return &ExternalDataRepository{db: db}
}

// FindByURNs returns the stored rows whose URN is in urns, in one round trip.
func (r *ExternalDataRepository) FindByURNs(ctx context.Context, urns []string) ([]domain.StoredExternalData, error) {
	if len(urns) == 0 {
		return nil, nil
	}

	var models []ExternalDataModel
	err := r.db.WithContext(ctx).
		Where("urn = ANY(?)", pq.StringArray(urns)).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("finding external data: %w", err)
	}

	rows := make([]domain.StoredExternalData, len(models))
	for i := range models {
		rows[i] = models[i].ToDomain()
	}

	return rows, nil
}

// UpsertBatch inserts or replaces every row by URN in a single transaction.
func (r *ExternalDataRepository) UpsertBatch(ctx context.Context, rows []domain.StoredExternalData) error {
	if len(rows) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]*ExternalDataModel, len(rows))
	for i, row := range rows {
		models[i] = &ExternalDataModel{
			URN:       row.URN,
			Payload:   datatypes.JSON(row.Payload),
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "urn"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("upserting external data: %w", err)
	}

	return nil
}

// ListStale returns up to limit URNs last written before olderThan, oldest first.
func (r *ExternalDataRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	var urns []string
	err := r.db.WithContext(ctx).
		Model(&ExternalDataModel{}).
		Where("updated_at < ?", olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("urn", &urns).Error
	if err != nil {
		return nil, fmt.Errorf("listing stale external data: %w", err)
	}

	return urns, nil
}

// Touch sets updated_at to now on every listed row, leaving the payload as is.
func (r *ExternalDataRepository) Touch(ctx context.Context, urns []string) error {
	if len(urns) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&ExternalDataModel{}).
		Where("urn = ANY(?)", pq.StringArray(urns)).
		UpdateColumn("updated_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("touching external data: %w", err)
	}

	return nil
}
