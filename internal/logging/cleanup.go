package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"gorm.io/gorm"
)

// Cleanup deletes system logs older than retention and OTP challenges that
// have expired.
func Cleanup(ctx context.Context, db *gorm.DB, retention time.Duration, now time.Time) (logs, otps int64, err error) {
	res := db.WithContext(ctx).Where("timestamp < ?", now.Add(-retention)).Delete(&models.SystemLog{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	logs = res.RowsAffected

	res = db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.OTPVerification{})
	if res.Error != nil {
		return logs, 0, res.Error
	}
	return logs, res.RowsAffected, nil
}

// StartCleanup runs Cleanup once a day until done is closed.
func StartCleanup(db *gorm.DB, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logs, otps, err := Cleanup(context.Background(), db, retention, time.Now())
				if err != nil {
					slog.Error("cleanup failed", "error", err)
				} else if logs > 0 || otps > 0 {
					slog.Info("cleanup completed", "system_logs", logs, "otp_challenges", otps)
				}
			case <-done:
				return
			}
		}
	}()
}
