package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createPointsTable creates the append-only points ledger. The unique index on
// (account_id, dedup_key) is what makes reward grants idempotent under
// concurrent callers.
var createPointsTable = &gormigrate.Migration{
	ID: "000002_create_points_table",
	Migrate: func(tx *gorm.DB) error {
		return tx.Exec(`
			CREATE TABLE IF NOT EXISTS points (
				id UUID PRIMARY KEY,
				account_id UUID NOT NULL REFERENCES accounts(id),
				amount BIGINT NOT NULL,
				note VARCHAR(255) NOT NULL,
				dedup_key VARCHAR(128) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_points_account_id ON points(account_id);
			CREATE UNIQUE INDEX idx_points_account_dedup ON points(account_id, dedup_key);
		`).Error
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Exec(`DROP TABLE IF EXISTS points;`).Error
	},
}
