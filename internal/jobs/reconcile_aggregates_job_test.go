package jobs

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/galaxydo/waitlist-backend/internal/config"
	"github.com/galaxydo/waitlist-backend/internal/models"
	"github.com/galaxydo/waitlist-backend/internal/services/leaderboard"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.PointGrant{}))
	return db
}

func TestRunFixesDriftedAggregates(t *testing.T) {
	db := setupTestDB(t)
	lb := leaderboard.NewService(db, nil, config.LeaderboardConfig{PageSize: 50, HouseHandle: "@galaxy.do", CacheTTL: 60})
	job := NewReconcileAggregatesJob(db, lb)

	referrer := models.Account{
		ExternalID:     "tw-1",
		TwitterHandle:  "@referrer",
		InvitationCode: "CODE1234",
		TotalPoints:    9999, // drifted
	}
	require.NoError(t, db.Create(&referrer).Error)

	invited := models.Account{
		ExternalID:         "tw-2",
		TwitterHandle:      "@invited",
		InvitationCode:     "CODE5678",
		InvitedByAccountID: &referrer.ID,
		TotalPoints:        100,
		// InvitedAccountsCount on the referrer is left at 0, also drifted.
	}
	require.NoError(t, db.Create(&invited).Error)

	grants := []models.PointGrant{
		{AccountID: referrer.ID, Amount: 500, Note: "Referral of @invited", DedupKey: "referral_signup:" + invited.ID.String()},
		{AccountID: invited.ID, Amount: 100, Note: "Sign Up", DedupKey: "signup"},
	}
	require.NoError(t, db.Create(&grants).Error)

	require.NoError(t, job.Run(context.Background()))

	var after models.Account
	require.NoError(t, db.First(&after, "id = ?", referrer.ID).Error)
	assert.EqualValues(t, 500, after.TotalPoints)
	assert.Equal(t, 1, after.InvitedAccountsCount)

	var invitedAfter models.Account
	require.NoError(t, db.First(&invitedAfter, "id = ?", invited.ID).Error)
	assert.EqualValues(t, 100, invitedAfter.TotalPoints)
}

func TestRunZeroesAccountsWithoutGrants(t *testing.T) {
	db := setupTestDB(t)
	lb := leaderboard.NewService(db, nil, config.LeaderboardConfig{PageSize: 50, HouseHandle: "@galaxy.do", CacheTTL: 60})
	job := NewReconcileAggregatesJob(db, lb)

	account := models.Account{
		Base:           models.Base{ID: uuid.New()},
		ExternalID:     "tw-1",
		TwitterHandle:  "@empty",
		InvitationCode: "CODE1234",
		TotalPoints:    42,
	}
	require.NoError(t, db.Create(&account).Error)

	require.NoError(t, job.Run(context.Background()))

	var after models.Account
	require.NoError(t, db.First(&after, "id = ?", account.ID).Error)
	assert.EqualValues(t, 0, after.TotalPoints)
}
