package jobs

import (
	"context"
	"log"
	"time"

	"github.com/galaxydo/waitlist-backend/internal/services/leaderboard"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

// ReconcileAggregatesJob re-derives the cached total_points and
// invited_accounts_count columns from the points ledger and the referral
// back-references. The rewards engine keeps both in sync transactionally; this
// job is the safety net against drift (manual data fixes, restored backups).
type ReconcileAggregatesJob struct {
	db          *gorm.DB
	leaderboard *leaderboard.Service
	scheduler   *gocron.Scheduler
}

// NewReconcileAggregatesJob creates the job with its own scheduler
func NewReconcileAggregatesJob(db *gorm.DB, lb *leaderboard.Service) *ReconcileAggregatesJob {
	return &ReconcileAggregatesJob{
		db:          db,
		leaderboard: lb,
		scheduler:   gocron.NewScheduler(time.UTC),
	}
}

// Schedule runs the reconciliation daily and starts the scheduler
func (j *ReconcileAggregatesJob) Schedule() error {
	_, err := j.scheduler.Every(24).Hours().Do(func() {
		if err := j.Run(context.Background()); err != nil {
			log.Printf("aggregate reconciliation failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (j *ReconcileAggregatesJob) Stop() {
	j.scheduler.Stop()
}

// Run performs one reconciliation pass and warms the leaderboard cache
func (j *ReconcileAggregatesJob) Run(ctx context.Context) error {
	db := j.db.WithContext(ctx)

	pointsResult := db.Exec(`
		UPDATE accounts SET total_points = (
			SELECT COALESCE(SUM(amount), 0)
			FROM points
			WHERE points.account_id = accounts.id AND points.deleted_at IS NULL
		)
		WHERE total_points <> (
			SELECT COALESCE(SUM(amount), 0)
			FROM points
			WHERE points.account_id = accounts.id AND points.deleted_at IS NULL
		)`)
	if pointsResult.Error != nil {
		return pointsResult.Error
	}

	invitedResult := db.Exec(`
		UPDATE accounts SET invited_accounts_count = (
			SELECT COUNT(*)
			FROM accounts invited
			WHERE invited.invited_by_account_id = accounts.id AND invited.deleted_at IS NULL
		)
		WHERE invited_accounts_count <> (
			SELECT COUNT(*)
			FROM accounts invited
			WHERE invited.invited_by_account_id = accounts.id AND invited.deleted_at IS NULL
		)`)
	if invitedResult.Error != nil {
		return invitedResult.Error
	}

	if pointsResult.RowsAffected > 0 || invitedResult.RowsAffected > 0 {
		log.Printf("reconciled cached aggregates: %d point totals, %d invite counts corrected",
			pointsResult.RowsAffected, invitedResult.RowsAffected)
	}

	if err := j.leaderboard.WarmCache(ctx); err != nil {
		log.Printf("leaderboard cache warm failed: %v", err)
	}

	return nil
}
