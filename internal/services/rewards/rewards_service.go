package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/galaxydo/waitlist-backend/internal/config"
	"github.com/galaxydo/waitlist-backend/internal/models"
	"github.com/galaxydo/waitlist-backend/internal/utils"
	"gorm.io/gorm"
)

// Identity is the authenticated caller, resolved at the HTTP boundary and passed
// in explicitly so the engine never reads ambient session state.
type Identity struct {
	ExternalID string
	Email      string
	Handle     string
}

// Outcome is the discriminated result of a reward operation. Storage failures are
// returned as a separate error so callers can tell "nothing to do" from "broken".
type Outcome string

const (
	OutcomeGranted        Outcome = "granted"
	OutcomeAlreadyGranted Outcome = "already_granted"
	OutcomeAccountExists  Outcome = "account_exists"
	OutcomeInvalidCode    Outcome = "invalid_code"
	OutcomeNoAccount      Outcome = "no_account"
	OutcomeFailed         Outcome = "failed"
)

// Ledger note labels, matching the original waitlist product copy.
const (
	NoteSignUp          = "Sign Up"
	NoteWalletConnect   = "Plug Wallet Connection"
	NoteTwitterFollow   = "Follow Galaxy.do on Twitter"
	NoteDiscordJoin     = "Joined Discord Galaxy.do"
	NoteReferralWallet  = "Referral Plug Wallet Connection"
	NoteReferralTwitter = "Referral Twitter Follow"
	NoteReferralDiscord = "Referral Discord Join"
)

// Deduplication keys. Actor-side keys are fixed per category; referrer-side keys
// carry the referee's account ID because a referrer legitimately earns the same
// bonus once per referee.
const (
	dedupSignUp        = "signup"
	dedupWalletConnect = "wallet_connect"
	dedupTwitterFollow = "twitter_follow"
	dedupDiscordJoin   = "discord_join"

	dedupReferralSignUpPrefix  = "referral_signup:"
	dedupReferralWalletPrefix  = "referral_wallet:"
	dedupReferralTwitterPrefix = "referral_twitter:"
	dedupReferralDiscordPrefix = "referral_discord:"
)

// Service is the reward rules engine. Every grant of a single trigger (actor
// grant, referrer bonus, cached aggregate bumps) commits in one transaction, and
// the unique (account_id, dedup_key) index backstops the in-transaction checks
// against concurrent callers.
type Service struct {
	db  *gorm.DB
	cfg config.RewardsConfig
}

// NewService creates a new rewards service
func NewService(db *gorm.DB, cfg config.RewardsConfig) *Service {
	return &Service{db: db, cfg: cfg}
}

// Account returns the caller's account, or nil when none exists yet.
func (s *Service) Account(ctx context.Context, id Identity) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("external_id = ?", id.ExternalID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return &account, nil
}

// PointGrants returns the caller's ledger entries, newest first. A caller without
// an account gets an empty list.
func (s *Service) PointGrants(ctx context.Context, id Identity) ([]models.PointGrant, error) {
	account, err := s.Account(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return []models.PointGrant{}, nil
	}

	var grants []models.PointGrant
	err = s.db.WithContext(ctx).
		Where("account_id = ?", account.ID).
		Order("created_at DESC").
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point grants: %w", err)
	}
	return grants, nil
}

// WalletLinked reports whether the caller has connected a wallet.
func (s *Service) WalletLinked(ctx context.Context, id Identity) (bool, error) {
	account, err := s.Account(ctx, id)
	if err != nil {
		return false, err
	}
	return account != nil && account.WalletLinked(), nil
}

// TwitterFollowed reports whether the Twitter follow reward has been granted.
func (s *Service) TwitterFollowed(ctx context.Context, id Identity) (bool, error) {
	return s.grantExists(ctx, id, dedupTwitterFollow)
}

// DiscordJoined reports whether the Discord join reward has been granted.
func (s *Service) DiscordJoined(ctx context.Context, id Identity) (bool, error) {
	return s.grantExists(ctx, id, dedupDiscordJoin)
}

func (s *Service) grantExists(ctx context.Context, id Identity, dedupKey string) (bool, error) {
	account, err := s.Account(ctx, id)
	if err != nil {
		return false, err
	}
	if account == nil {
		return false, nil
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.PointGrant{}).
		Where("account_id = ? AND dedup_key = ?", account.ID, dedupKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing grant: %w", err)
	}
	return count > 0, nil
}

// ClaimCode redeems an invitation code: it creates the caller's account, grants
// the sign-up points, and credits the code owner with the referral bonus. The
// reserved code is matched by exact, case-sensitive equality.
func (s *Service) ClaimCode(ctx context.Context, id Identity, code string) (Outcome, error) {
	db := s.db.WithContext(ctx)

	var existing models.Account
	err := db.Where("external_id = ?", id.ExternalID).First(&existing).Error
	if err == nil {
		return OutcomeAccountExists, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return OutcomeFailed, fmt.Errorf("failed to check existing account: %w", err)
	}

	var invitor models.Account
	err = db.Where("invitation_code = ?", code).First(&invitor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeInvalidCode, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to look up invitation code: %w", err)
	}

	signUpPoints := s.cfg.SignUpPoints
	if code == s.cfg.ReservedCode {
		signUpPoints = s.cfg.ReservedCodePoints
	}

	handle := normalizeHandle(id.Handle)

	err = db.Transaction(func(tx *gorm.DB) error {
		account := models.Account{
			ExternalID:         id.ExternalID,
			Email:              id.Email,
			TwitterHandle:      handle,
			InvitationCode:     utils.GenerateInvitationCode(8),
			InvitedByAccountID: &invitor.ID,
			TotalPoints:        signUpPoints,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		grants := []models.PointGrant{
			{
				AccountID: account.ID,
				Amount:    signUpPoints,
				Note:      NoteSignUp,
				DedupKey:  dedupSignUp,
			},
			{
				AccountID: invitor.ID,
				Amount:    s.cfg.ReferralPoints,
				Note:      fmt.Sprintf("Referral of %s", handle),
				DedupKey:  dedupReferralSignUpPrefix + account.ID.String(),
			},
		}
		if err := tx.Create(&grants).Error; err != nil {
			return err
		}

		return tx.Model(&models.Account{}).Where("id = ?", invitor.ID).
			Updates(map[string]interface{}{
				"total_points":           gorm.Expr("total_points + ?", s.cfg.ReferralPoints),
				"invited_accounts_count": gorm.Expr("invited_accounts_count + ?", 1),
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent claim for the same identity won the race.
			return OutcomeAccountExists, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to claim invitation code: %w", err)
	}

	return OutcomeGranted, nil
}

// SavePrincipalID stores the connected wallet's principal. The principal is
// updated on every call, but points are granted only on the unset-to-set
// transition; if the account has a referrer, the referrer's bonus commits in the
// same transaction as the actor's grant.
func (s *Service) SavePrincipalID(ctx context.Context, id Identity, principalID string) (Outcome, error) {
	db := s.db.WithContext(ctx)

	outcome := OutcomeAlreadyGranted
	err := db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("external_id = ?", id.ExternalID).First(&account).Error; err != nil {
			return err
		}

		firstConnect := !account.WalletLinked()
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("principal_id", principalID).Error; err != nil {
			return err
		}
		if !firstConnect {
			return nil
		}

		grants := []models.PointGrant{
			{
				AccountID: account.ID,
				Amount:    s.cfg.WalletPoints,
				Note:      NoteWalletConnect,
				DedupKey:  dedupWalletConnect,
			},
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("total_points", gorm.Expr("total_points + ?", s.cfg.WalletPoints)).Error; err != nil {
			return err
		}

		if account.InvitedByAccountID != nil {
			bonus := s.cfg.WalletPoints / s.cfg.ReferralDivisor
			grants = append(grants, models.PointGrant{
				AccountID: *account.InvitedByAccountID,
				Amount:    bonus,
				Note:      NoteReferralWallet,
				DedupKey:  dedupReferralWalletPrefix + account.ID.String(),
			})
			if err := tx.Model(&models.Account{}).Where("id = ?", *account.InvitedByAccountID).
				Update("total_points", gorm.Expr("total_points + ?", bonus)).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&grants).Error; err != nil {
			return err
		}

		outcome = OutcomeGranted
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeNoAccount, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return OutcomeAlreadyGranted, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to save principal id: %w", err)
	}

	return outcome, nil
}

// ConfirmTwitterFollow grants the Twitter follow reward once per account, plus
// the referrer bonus when the account was invited.
func (s *Service) ConfirmTwitterFollow(ctx context.Context, id Identity) (Outcome, error) {
	return s.confirmSocialTask(ctx, id, socialTask{
		amount:              s.cfg.TwitterFollowPoints,
		note:                NoteTwitterFollow,
		dedupKey:            dedupTwitterFollow,
		referralNote:        NoteReferralTwitter,
		referralDedupPrefix: dedupReferralTwitterPrefix,
		referralBonus:       true,
	})
}

// ConfirmDiscordJoin grants the Discord join reward once per account. The
// referrer bonus for this trigger is gated behind the DiscordReferralBonus
// config flag, off by default.
func (s *Service) ConfirmDiscordJoin(ctx context.Context, id Identity) (Outcome, error) {
	return s.confirmSocialTask(ctx, id, socialTask{
		amount:              s.cfg.DiscordJoinPoints,
		note:                NoteDiscordJoin,
		dedupKey:            dedupDiscordJoin,
		referralNote:        NoteReferralDiscord,
		referralDedupPrefix: dedupReferralDiscordPrefix,
		referralBonus:       s.cfg.DiscordReferralBonus,
	})
}

// socialTask describes one follow/join style reward category.
type socialTask struct {
	amount              int64
	note                string
	dedupKey            string
	referralNote        string
	referralDedupPrefix string
	referralBonus       bool
}

func (s *Service) confirmSocialTask(ctx context.Context, id Identity, task socialTask) (Outcome, error) {
	db := s.db.WithContext(ctx)

	var account models.Account
	err := db.Where("external_id = ?", id.ExternalID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeNoAccount, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to fetch account: %w", err)
	}

	var count int64
	err = db.Model(&models.PointGrant{}).
		Where("account_id = ? AND dedup_key = ?", account.ID, task.dedupKey).
		Count(&count).Error
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to check existing grant: %w", err)
	}
	if count > 0 {
		return OutcomeAlreadyGranted, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		grants := []models.PointGrant{
			{
				AccountID: account.ID,
				Amount:    task.amount,
				Note:      task.note,
				DedupKey:  task.dedupKey,
			},
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("total_points", gorm.Expr("total_points + ?", task.amount)).Error; err != nil {
			return err
		}

		if task.referralBonus && account.InvitedByAccountID != nil {
			bonus := task.amount / s.cfg.ReferralDivisor
			grants = append(grants, models.PointGrant{
				AccountID: *account.InvitedByAccountID,
				Amount:    bonus,
				Note:      task.referralNote,
				DedupKey:  task.referralDedupPrefix + account.ID.String(),
			})
			if err := tx.Model(&models.Account{}).Where("id = ?", *account.InvitedByAccountID).
				Update("total_points", gorm.Expr("total_points + ?", bonus)).Error; err != nil {
				return err
			}
		}

		return tx.Create(&grants).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against an identical concurrent trigger.
			return OutcomeAlreadyGranted, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to grant %q: %w", task.note, err)
	}

	return OutcomeGranted, nil
}

// normalizeHandle ensures handles are stored with a single leading @.
func normalizeHandle(handle string) string {
	return "@" + strings.TrimPrefix(handle, "@")
}
