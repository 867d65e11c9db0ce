package models

import (
	"github.com/google/uuid"
)

// Account represents a registered waitlist participant, one per external identity.
// TotalPoints and InvitedAccountsCount are cached aggregates maintained by the
// rewards engine inside the same transaction as each grant, and re-derived by the
// reconciliation job.
type Account struct {
	Base
	ExternalID           string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_id"`
	Email                string     `gorm:"type:varchar(255)" json:"email"`
	TwitterHandle        string     `gorm:"type:varchar(64)" json:"twitter_handle"`
	InvitationCode       string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"invitation_code"`
	InvitedByAccountID   *uuid.UUID `gorm:"type:uuid;index" json:"invited_by_account_id"`
	InvitedByAccount     *Account   `gorm:"foreignKey:InvitedByAccountID" json:"-"`
	PrincipalID          *string    `gorm:"type:text" json:"principal_id"`
	TotalPoints          int64      `gorm:"not null;default:0" json:"total_points"`
	InvitedAccountsCount int        `gorm:"not null;default:0" json:"invited_accounts_count"`
}

// WalletLinked reports whether a wallet principal has been saved for the account.
func (a *Account) WalletLinked() bool {
	return a.PrincipalID != nil && *a.PrincipalID != ""
}
