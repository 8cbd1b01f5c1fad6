package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createContentsTable creates the append-only catalog table.
func createContentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_contents",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS contents (
					id BIGSERIAL PRIMARY KEY,
					submission_urn TEXT NOT NULL,
					source_urn TEXT NOT NULL,
					origin_urn TEXT NOT NULL,
					media_url TEXT NOT NULL,
					thumbnail_url TEXT,

					-- JSON array of labels
					tags JSONB NOT NULL DEFAULT '[]'::jsonb,

					submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_contents_tags ON contents USING GIN (tags jsonb_path_ops);",
				"CREATE INDEX IF NOT EXISTS idx_contents_submitted_at ON contents(submitted_at DESC, id DESC);",
				"CREATE INDEX IF NOT EXISTS idx_contents_source_urn ON contents(source_urn);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS contents;").Error
		},
	}
}
