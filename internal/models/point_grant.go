package models

import (
	"github.com/google/uuid"
)

// PointGrant is an append-only ledger entry recording points awarded to an account.
// DedupKey is the idempotency key: the unique index on (account_id, dedup_key)
// makes duplicate grants for the same trigger impossible at the storage level,
// regardless of concurrent callers.
type PointGrant struct {
	Base
	AccountID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_points_account_dedup" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID" json:"-"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Note      string    `gorm:"type:varchar(255);not null" json:"note"`
	DedupKey  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_points_account_dedup" json:"-"`
}

// TableName overrides the default so the ledger matches the original schema name.
func (PointGrant) TableName() string {
	return "points"
}
