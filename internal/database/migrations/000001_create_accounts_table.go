package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createAccountsTable creates the accounts table
var createAccountsTable = &gormigrate.Migration{
	ID: "000001_create_accounts_table",
	Migrate: func(tx *gorm.DB) error {
		return tx.Exec(`
			CREATE TABLE IF NOT EXISTS accounts (
				id UUID PRIMARY KEY,
				external_id VARCHAR(64) NOT NULL UNIQUE,
				email VARCHAR(255),
				twitter_handle VARCHAR(64),
				invitation_code VARCHAR(16) NOT NULL UNIQUE,
				invited_by_account_id UUID REFERENCES accounts(id),
				principal_id TEXT,
				total_points BIGINT NOT NULL DEFAULT 0,
				invited_accounts_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_accounts_invited_by ON accounts(invited_by_account_id);
			CREATE INDEX idx_accounts_total_points ON accounts(total_points DESC);
		`).Error
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Exec(`DROP TABLE IF EXISTS accounts;`).Error
	},
}
