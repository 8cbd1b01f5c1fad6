package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createExternalDataTable creates the provider response cache keyed by URN.
func createExternalDataTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_external_data",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS external_data (
					id BIGSERIAL PRIMARY KEY,
					urn TEXT NOT NULL,
					payload JSONB NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

					CONSTRAINT uq_external_data_urn UNIQUE (urn)
				);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_external_data_updated_at
				ON external_data(updated_at)
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS external_data;").Error
		},
	}
}
