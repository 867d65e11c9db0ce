package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/galaxydo/waitlist-backend/internal/config"
	"github.com/galaxydo/waitlist-backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one leaderboard row.
type Entry struct {
	AccountID    uuid.UUID `json:"account_id"`
	Handle       string    `json:"handle"`
	InvitedCount int       `json:"invited_count"`
	Points       int64     `json:"points"`
}

// Page is a single page of the leaderboard plus the overall participant count.
type Page struct {
	Entries  []Entry `json:"entries"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// Service computes the ranking projection over the accounts table. The house
// account is excluded everywhere. Ordering is total_points DESC, created_at ASC,
// id ASC: earlier sign-ups win ties, and the id column makes the order total.
type Service struct {
	db    *gorm.DB
	cache *redis.Client
	cfg   config.LeaderboardConfig
}

// NewService creates a new leaderboard service. cache may be nil, in which case
// every read goes to the database.
func NewService(db *gorm.DB, cache *redis.Client, cfg config.LeaderboardConfig) *Service {
	return &Service{db: db, cache: cache, cfg: cfg}
}

const orderClause = "total_points DESC, created_at ASC, id ASC"

// PageFor returns one leaderboard page, serving from the redis cache when
// possible. A cache failure degrades to a database read.
func (s *Service) PageFor(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	cacheKey := fmt.Sprintf("leaderboard:page:%d", page)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var result Page
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("leaderboard cache read failed: %v", err)
		}
	}

	result, err := s.pageFromDB(ctx, page)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			ttl := time.Duration(s.cfg.CacheTTL) * time.Second
			if err := s.cache.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
				log.Printf("leaderboard cache write failed: %v", err)
			}
		}
	}

	return result, nil
}

func (s *Service) pageFromDB(ctx context.Context, page int) (*Page, error) {
	db := s.db.WithContext(ctx)

	var total int64
	err := db.Model(&models.Account{}).
		Where("twitter_handle <> ?", s.cfg.HouseHandle).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	var accounts []models.Account
	err = db.Where("twitter_handle <> ?", s.cfg.HouseHandle).
		Order(orderClause).
		Offset((page - 1) * s.cfg.PageSize).
		Limit(s.cfg.PageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard page: %w", err)
	}

	entries := make([]Entry, 0, len(accounts))
	for _, account := range accounts {
		entries = append(entries, Entry{
			AccountID:    account.ID,
			Handle:       account.TwitterHandle,
			InvitedCount: account.InvitedAccountsCount,
			Points:       account.TotalPoints,
		})
	}

	return &Page{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: s.cfg.PageSize,
	}, nil
}

// Rank returns the 1-based position of an account in the full ordering, or 0
// when the account does not exist or is the house account.
func (s *Service) Rank(ctx context.Context, accountID uuid.UUID) (int64, error) {
	db := s.db.WithContext(ctx)

	var account models.Account
	err := db.First(&account, "id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to fetch account: %w", err)
	}
	if account.TwitterHandle == s.cfg.HouseHandle {
		return 0, nil
	}

	var ahead int64
	err = db.Model(&models.Account{}).
		Where("twitter_handle <> ?", s.cfg.HouseHandle).
		Where(
			db.Where("total_points > ?", account.TotalPoints).
				Or("total_points = ? AND created_at < ?", account.TotalPoints, account.CreatedAt).
				Or("total_points = ? AND created_at = ? AND id < ?", account.TotalPoints, account.CreatedAt, account.ID),
		).
		Count(&ahead).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}

	return ahead + 1, nil
}

// WarmCache recomputes and stores the first leaderboard page. Called by the
// scheduled reconciliation job.
func (s *Service) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	result, err := s.pageFromDB(ctx, 1)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard page: %w", err)
	}

	ttl := time.Duration(s.cfg.CacheTTL) * time.Second
	return s.cache.Set(ctx, "leaderboard:page:1", payload, ttl).Err()
}
